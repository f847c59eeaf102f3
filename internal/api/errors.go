package api

import (
	"errors"
	"strings"
)

// AuthError indicates that the backend rejected the request because the
// session token is missing, invalid, or expired.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "auth error: " + e.Message
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// GraphQLError wraps the errors array of a GraphQL response.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 {
		return "graphql error"
	}
	return strings.Join(e.Messages, "; ")
}

// MutationError carries the message of a mutation that completed at the
// transport level but reported success=false. It is distinct from a
// transport or GraphQL failure so callers can surface the server's own
// business-rule message.
type MutationError struct {
	Message string
}

func (e *MutationError) Error() string {
	if e.Message == "" {
		return "operation failed"
	}
	return e.Message
}

// authErrorFragments are substrings of GraphQL error messages the JWT
// middleware emits when a token is missing, malformed, or expired.
var authErrorFragments = []string{
	"Signature has expired",
	"Error decoding signature",
	"Invalid payload",
	"Invalid token",
	"You do not have permission",
	"Unauthenticated",
}

// classifyErrors converts a GraphQL errors array into a typed error,
// detecting auth failures by message.
func classifyErrors(messages []string) error {
	for _, msg := range messages {
		for _, fragment := range authErrorFragments {
			if strings.Contains(msg, fragment) {
				return &AuthError{Message: msg}
			}
		}
	}
	return &GraphQLError{Messages: messages}
}
