package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nhle/mini-jira/internal/session"
)

// TokenSource supplies the current session token. It is satisfied by
// *session.Store; an absent token is reported as session.ErrNoToken.
type TokenSource interface {
	Get() (string, error)
}

// Client is a thin HTTP client for a single GraphQL endpoint. Every
// request is a POST carrying a query document and variables; the
// Authorization header is derived from the token source on each call,
// so a token set after construction takes effect immediately.
type Client struct {
	endpoint   string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a GraphQL client for the given endpoint URL. The
// tokens source may be nil for a permanently unauthenticated client.
func NewClient(endpoint string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// request is the JSON body of a GraphQL POST.
type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// envelope is the standard GraphQL response wrapper.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// authHeader returns the Authorization header value: "JWT <token>" when
// a token is stored, the empty string otherwise. The backend treats an
// empty value as an unauthenticated request rather than a transport
// error.
func (c *Client) authHeader() string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Get()
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, session.ErrNoToken) {
			// Storage failure: proceed unauthenticated, the backend
			// will reject anything that needed auth.
			return ""
		}
		return ""
	}
	return "JWT " + token
}

// do executes one GraphQL operation and unmarshals the data payload
// into result. GraphQL-level errors are returned as *AuthError or
// *GraphQLError; transport failures are wrapped plainly.
func (c *Client) do(
	ctx context.Context,
	query string,
	variables map[string]any,
	result any,
) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request to %s: %w", c.endpoint, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden {
		return &AuthError{
			Message: fmt.Sprintf(
				"request rejected (%d) by %s", resp.StatusCode, c.endpoint,
			),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf(
			"unexpected status %d from %s: %s",
			resp.StatusCode, c.endpoint, string(respBody),
		)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("unmarshaling response from %s: %w", c.endpoint, err)
	}

	if len(env.Errors) > 0 {
		messages := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			messages = append(messages, e.Message)
		}
		return classifyErrors(messages)
	}

	if result == nil || env.Data == nil {
		return nil
	}

	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unmarshaling data from %s: %w", c.endpoint, err)
	}

	return nil
}
