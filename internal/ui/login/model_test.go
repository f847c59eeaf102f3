package login

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/mini-jira/internal/api"
	"github.com/nhle/mini-jira/internal/model"
)

type fakeAuth struct {
	token      string
	authErr    error
	createErr  error
	loginCalls int
}

func (f *fakeAuth) TokenAuth(ctx context.Context, email, password string) (api.TokenResult, error) {
	f.loginCalls++
	if f.authErr != nil {
		return api.TokenResult{}, f.authErr
	}
	return api.TokenResult{Token: f.token}, nil
}

func (f *fakeAuth) CreateUser(ctx context.Context, email, password, firstName, lastName string) (*model.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &model.User{ID: "u1", Email: email}, nil
}

type tokenRecorder struct {
	token string
	err   error
}

func (r *tokenRecorder) Set(token string) error {
	if r.err != nil {
		return r.err
	}
	r.token = token
	return nil
}

func TestSubmitSignInPersistsTokenBeforeSuccess(t *testing.T) {
	auth := &fakeAuth{token: "tok-123"}
	rec := &tokenRecorder{}
	m := New(auth, rec, 80, 24)
	m.fb.email = "jane@example.com"
	m.fb.password = "hunter2"

	m, cmd := m.submit()
	if !m.Submitting() {
		t.Error("submit should mark an operation in flight")
	}

	msg := cmd()
	result, ok := msg.(loginResultMsg)
	if !ok {
		t.Fatalf("expected loginResultMsg, got %T", msg)
	}
	if result.err != nil {
		t.Fatalf("unexpected error: %v", result.err)
	}
	if rec.token != "tok-123" {
		t.Errorf("token not persisted, got %q", rec.token)
	}

	m, cmd = m.Update(result)
	if m.Submitting() {
		t.Error("submitting flag should clear")
	}
	if _, ok := cmd().(LoginSuccessMsg); !ok {
		t.Error("expected LoginSuccessMsg after a persisted token")
	}
}

func TestSignInFailureShowsError(t *testing.T) {
	auth := &fakeAuth{authErr: &api.GraphQLError{Messages: []string{"Please enter valid credentials"}}}
	m := New(auth, &tokenRecorder{}, 80, 24)
	m.fb.email = "jane@example.com"
	m.fb.password = "wrong"

	m, cmd := m.submit()
	msg := cmd().(loginResultMsg)
	m, _ = m.Update(msg)

	if m.errMsg == "" {
		t.Error("failed sign-in should surface an error message")
	}
	if m.Submitting() {
		t.Error("failed sign-in should allow another attempt")
	}
}

func TestTokenPersistFailureBlocksSuccess(t *testing.T) {
	auth := &fakeAuth{token: "tok-123"}
	rec := &tokenRecorder{err: errors.New("keyring unavailable")}
	m := New(auth, rec, 80, 24)
	m.fb.email = "jane@example.com"
	m.fb.password = "hunter2"

	_, cmd := m.submit()
	result := cmd().(loginResultMsg)
	if result.err == nil {
		t.Error("a token that cannot be persisted must not count as a login")
	}
}

func TestRegisterSuccessReturnsToSignIn(t *testing.T) {
	m := New(&fakeAuth{}, &tokenRecorder{}, 80, 24)
	m.mode = ModeRegister
	m.fb.email = "new@example.com"
	m.fb.password = "secret"

	m, _ = m.Update(registerResultMsg{})

	if m.Mode() != ModeSignIn {
		t.Error("registration should switch back to sign-in")
	}
	if m.successMsg == "" {
		t.Error("expected a success message")
	}
	if m.Password() != "" {
		t.Error("the password should be cleared")
	}
	if m.Email() != "new@example.com" {
		t.Error("the email should be kept for immediate sign-in")
	}
}

func TestRegisterFailureStaysInRegisterMode(t *testing.T) {
	m := New(&fakeAuth{}, &tokenRecorder{}, 80, 24)
	m.mode = ModeRegister

	m, _ = m.Update(registerResultMsg{err: &api.MutationError{
		Message: "A user with this email already exists",
	}})

	if m.Mode() != ModeRegister {
		t.Error("a failed registration should stay in register mode")
	}
	if m.errMsg != "A user with this email already exists" {
		t.Errorf("expected the server message, got %q", m.errMsg)
	}
}

func TestToggleModeKeepsFieldsAndClearsMessages(t *testing.T) {
	m := New(&fakeAuth{}, &tokenRecorder{}, 80, 24)
	m.fb.email = "jane@example.com"
	m.errMsg = "old error"
	m.successMsg = "old success"

	_ = (&m).ToggleMode()

	if m.Mode() != ModeRegister {
		t.Error("toggle should switch to register")
	}
	if m.Email() != "jane@example.com" {
		t.Error("field values should survive a mode toggle")
	}
	if m.errMsg != "" || m.successMsg != "" {
		t.Error("transient messages should clear on toggle")
	}

	_ = (&m).ToggleMode()
	if m.Mode() != ModeSignIn {
		t.Error("second toggle should return to sign-in")
	}
}

func TestToggleModeIgnoredWhileSubmitting(t *testing.T) {
	m := New(&fakeAuth{}, &tokenRecorder{}, 80, 24)
	m.submitting = true

	_ = (&m).ToggleMode()
	if m.Mode() != ModeSignIn {
		t.Error("toggle must be ignored while a submission is pending")
	}
}
