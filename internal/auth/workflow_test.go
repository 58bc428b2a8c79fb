package auth_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"taskmgr/internal/auth"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/testutil"
	"taskmgr/internal/transport"
)

func setup(t *testing.T) (*auth.Workflow, *testutil.FakeService, *session.Store, *testutil.Recorder) {
	t.Helper()
	fake := testutil.NewFakeService()
	fake.AddUser("ann", "ann@example.com", "password1")
	store := session.NewMemory()
	rec := &testutil.Recorder{}
	return auth.New(fake, store, rec, nil), fake, store, rec
}

func TestLogin_Success(t *testing.T) {
	w, _, store, rec := setup(t)

	res := w.Login(context.Background(), "ann", "password1")
	if !res.Success || res.Err != nil {
		t.Fatalf("expected success, got %+v", res)
	}
	want := session.Session{
		LoggedIn: true,
		Token:    "token-ann",
		Message:  "Login successful",
		UserData: session.User{ID: "1", Email: "ann@example.com", Username: "ann"},
	}
	if !reflect.DeepEqual(store.Current(), want) {
		t.Errorf("expected %+v, got %+v", want, store.Current())
	}
	if res.Session == nil || !reflect.DeepEqual(*res.Session, want) {
		t.Errorf("result session mismatch: %+v", res.Session)
	}
	if !reflect.DeepEqual(rec.Successes(), []string{"Login successful"}) {
		t.Errorf("unexpected notifications %v", rec.All())
	}
}

func TestLogin_WrongPasswordLeavesSessionUntouched(t *testing.T) {
	w, _, store, rec := setup(t)

	res := w.Login(context.Background(), "ann", "wrong-password")
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Message != "Invalid username or password" {
		t.Errorf("expected server message, got %q", res.Message)
	}
	if rerr, ok := transport.AsRequestError(res.Err); !ok || !rerr.Unauthorized() {
		t.Errorf("expected 401 cause, got %v", res.Err)
	}
	if store.Current().LoggedIn {
		t.Error("session must stay logged out")
	}
	if !reflect.DeepEqual(rec.Failures(), []string{auth.MsgLoginFailed}) {
		t.Errorf("unexpected notifications %v", rec.All())
	}
}

func TestLogin_EmptyFieldsMakeNoCall(t *testing.T) {
	w, fake, _, rec := setup(t)

	res := w.Login(context.Background(), "", "")
	var verr *service.ValidationError
	if res.Success || !errors.As(res.Err, &verr) {
		t.Fatalf("expected validation failure, got %+v", res)
	}
	if verr.Field("username") == "" || verr.Field("password") == "" {
		t.Errorf("expected both fields flagged, got %v", verr)
	}
	if len(fake.Calls()) != 0 || len(rec.All()) != 0 {
		t.Errorf("expected no calls or notifications, got %v / %v", fake.Calls(), rec.All())
	}
}

// falsyLogin answers every login with success=false.
type falsyLogin struct {
	*testutil.FakeService
}

func (falsyLogin) Login(context.Context, service.Credentials) (service.LoginResponse, error) {
	return service.LoginResponse{Success: false, Token: "ignored", Message: "Account locked"}, nil
}

func TestLogin_FalsySuccessFlagIsFailure(t *testing.T) {
	store := session.NewMemory()
	rec := &testutil.Recorder{}
	w := auth.New(falsyLogin{testutil.NewFakeService()}, store, rec, nil)

	res := w.Login(context.Background(), "ann", "password1")
	if res.Success || res.Message != "Account locked" || !errors.Is(res.Err, auth.ErrRejected) {
		t.Fatalf("expected rejected result, got %+v", res)
	}
	if store.Current().LoggedIn {
		t.Error("session must stay logged out")
	}
	if !reflect.DeepEqual(rec.Failures(), []string{auth.MsgLoginFailed}) {
		t.Errorf("unexpected notifications %v", rec.All())
	}
}

func TestLogin_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := session.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	fake := testutil.NewFakeService()
	fake.AddUser("ann", "ann@example.com", "password1")

	if res := auth.New(fake, store, nil, nil).Login(context.Background(), "ann", "password1"); !res.Success {
		t.Fatalf("login failed: %+v", res)
	}
	store.Close()

	reopened, err := session.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if cur := reopened.Current(); !cur.LoggedIn || cur.Token != "token-ann" {
		t.Errorf("expected persisted session, got %+v", cur)
	}
}

func TestSignup_DoesNotLogIn(t *testing.T) {
	w, fake, store, rec := setup(t)

	res := w.Signup(context.Background(), service.Registration{
		Email: "bob@example.com", Username: "bob", Password: "password2",
	}, "password2")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if store.Current().LoggedIn {
		t.Error("signup must not log in")
	}
	if fake.CallCount("Login") != 0 {
		t.Error("signup must not call login")
	}
	if !reflect.DeepEqual(rec.Successes(), []string{"User registered successfully"}) {
		t.Errorf("unexpected notifications %v", rec.All())
	}
}

func TestSignup_ValidationAndConflict(t *testing.T) {
	w, fake, _, rec := setup(t)

	res := w.Signup(context.Background(), service.Registration{
		Email: "not-an-email", Username: "bo", Password: "short",
	}, "different")
	var verr *service.ValidationError
	if res.Success || !errors.As(res.Err, &verr) {
		t.Fatalf("expected validation failure, got %+v", res)
	}
	for _, f := range []string{"email", "username", "password"} {
		if verr.Field(f) == "" {
			t.Errorf("expected %s flagged in %v", f, verr)
		}
	}
	if fake.CallCount("Signup") != 0 {
		t.Error("invalid form must not reach the server")
	}

	res = w.Signup(context.Background(), service.Registration{
		Email: "ann2@example.com", Username: "ann", Password: "password1",
	}, "password1")
	if res.Success || res.Message != "Username already exists" {
		t.Errorf("expected conflict, got %+v", res)
	}
	if !reflect.DeepEqual(rec.Failures(), []string{auth.MsgSignupFailed}) {
		t.Errorf("unexpected notifications %v", rec.All())
	}
}

func TestLogout(t *testing.T) {
	w, _, store, rec := setup(t)
	if res := w.Login(context.Background(), "ann", "password1"); !res.Success {
		t.Fatalf("login failed: %+v", res)
	}

	res := w.Logout()
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if !reflect.DeepEqual(store.Current(), session.Default()) {
		t.Errorf("expected default session, got %+v", store.Current())
	}
	if _, err := store.Token(); !errors.Is(err, session.ErrNoToken) {
		t.Errorf("expected no token after logout, got %v", err)
	}
	if got := rec.Successes(); got[len(got)-1] != auth.MsgLoggedOut {
		t.Errorf("unexpected notifications %v", rec.All())
	}
}
