package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestRegister(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "asha", "email": " Asha@Example.com ", "password": "pw",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res RegisterResponse
	decode(t, w, &res)
	if res.User.Email != "asha@example.com" || res.User.ID == "" || res.Message != "User registered successfully" {
		t.Fatalf("response = %+v", res)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("password hash leaked: %s", w.Body.String())
	}

	dup := e.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "other", "email": "asha@example.com", "password": "pw2",
	})
	expectError(t, dup, http.StatusBadRequest, ErrCodeConflict)

	expectError(t, e.do(t, http.MethodPost, "/register", "", map[string]string{"username": "x"}),
		http.StatusBadRequest, ErrCodeValidation)
	expectError(t, e.do(t, http.MethodPost, "/register", "", `{"username":`),
		http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, e.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "x", "email": "not-an-email", "password": "pw",
	}), http.StatusBadRequest, ErrCodeValidation)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "ravi")

	w := e.do(t, http.MethodPost, "/login", "", map[string]string{"email": "ravi@example.com", "password": "pw-ravi"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res LoginResponse
	decode(t, w, &res)
	if res.Token == "" || res.ExpiresIn != 2592000 || res.User.Username != "ravi" || res.ExpiresAt == "" {
		t.Fatalf("response = %+v", res)
	}

	cases := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"wrong password", map[string]string{"email": "ravi@example.com", "password": "nope"}, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"unknown email", map[string]string{"email": "ghost@example.com", "password": "pw"}, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"missing password", map[string]string{"email": "ravi@example.com"}, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			er := expectError(t, e.do(t, http.MethodPost, "/login", "", tc.body), tc.status, tc.code)
			if tc.status == http.StatusUnauthorized && er.Message != "Invalid email or password" {
				t.Fatalf("message = %q", er.Message)
			}
		})
	}
}

func TestProfile(t *testing.T) {
	e := newEnv(t)
	tok := e.signup(t, "meera")

	w := e.do(t, http.MethodGet, "/profile", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res ProfileResponse
	decode(t, w, &res)
	if res.User.Username != "meera" || res.Timestamp != "2025-03-01T12:00:00Z" {
		t.Fatalf("response = %+v", res)
	}

	er := expectError(t, e.do(t, http.MethodGet, "/profile", "", nil), http.StatusUnauthorized, "unauthorized")
	if er.Message != "Token is missing" {
		t.Fatalf("message = %q", er.Message)
	}
	er = expectError(t, e.do(t, http.MethodGet, "/profile", "Bearer garbage", nil), http.StatusUnauthorized, "unauthorized")
	if er.Message != "Token is invalid" {
		t.Fatalf("message = %q", er.Message)
	}

	// A valid token for a user that no longer exists.
	tok2, _, err := e.auth.Tokens.Issue("deleted-user")
	if err != nil {
		t.Fatal(err)
	}
	expectError(t, e.do(t, http.MethodGet, "/profile", tok2, nil), http.StatusNotFound, ErrCodeNotFound)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "a")

	var res HealthResponse
	w := e.do(t, http.MethodGet, "/health", "", nil)
	decode(t, w, &res)
	if w.Code != http.StatusOK || res.Status != "healthy" || res.Database != "sqlite" || res.UsersCount != 1 {
		t.Fatalf("health = %d %+v", w.Code, res)
	}

	captureLogs(t)
	_ = e.store.Close()
	w = e.do(t, http.MethodGet, "/health", "", nil)
	decode(t, w, &res)
	if w.Code != http.StatusOK || res.Status != "degraded" {
		t.Fatalf("degraded health = %d %+v", w.Code, res)
	}
}
