package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/service"
)

func session(name, email string) service.Session {
	return service.Session{
		User:      user.User{ID: newUUID(), Name: name, Email: email, PasswordHash: "$2a$hash", CreatedAt: time.Now().UTC()},
		Token:     "signed.jwt.value",
		TokenType: "bearer",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}
}

func TestSignUpHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		registerErr    error
		wantStatusCode int
		wantCode       string
	}{
		{"success", `{"name":"Ada","email":"ada@example.com","password":"secret1"}`, nil, http.StatusCreated, ""},
		{"short password", `{"name":"Ada","email":"ada@example.com","password":"12345"}`, nil, http.StatusBadRequest, "validation_error"},
		{"bad email", `{"name":"Ada","email":"ada","password":"secret1"}`, nil, http.StatusBadRequest, "validation_error"},
		{"duplicate", `{"name":"Ada","email":"ada@example.com","password":"secret1"}`, user.ErrEmailTaken, http.StatusConflict, "duplicate_email"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeAuth{registerFn: func(ctx context.Context, req user.SignUpRequest) (service.Session, error) {
				if tc.registerErr != nil {
					return service.Session{}, tc.registerErr
				}
				return session(req.Name, req.Email), nil
			}}
			r := setupRouter(http.MethodPost, "/auth/signup", handlers.NewAuthHandler(fake).SignUp, "")

			w := doJSON(r, http.MethodPost, "/auth/signup", tc.body)
			if w.Code != tc.wantStatusCode {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tc.wantStatusCode, w.Body.String())
			}

			if tc.wantCode != "" {
				if got := decodeEnvelope(t, w).Error.Code; got != tc.wantCode {
					t.Fatalf("code = %q, want %q", got, tc.wantCode)
				}
				return
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["token"] == "" || body["tokenType"] != "bearer" {
				t.Fatalf("unexpected session body %s", w.Body.String())
			}
			u, _ := body["user"].(map[string]any)
			if _, leaked := u["passwordHash"]; leaked {
				t.Fatalf("password hash leaked")
			}
			if _, leaked := u["PasswordHash"]; leaked {
				t.Fatalf("password hash leaked")
			}
		})
	}
}

func TestSignInHandler_InvalidCredentials(t *testing.T) {
	fake := &fakeAuth{signInFn: func(context.Context, user.SignInRequest) (service.Session, error) {
		return service.Session{}, user.ErrInvalidCredentials
	}}
	r := setupRouter(http.MethodPost, "/auth/signin", handlers.NewAuthHandler(fake).SignIn, "")

	w := doJSON(r, http.MethodPost, "/auth/signin", `{"email":"ada@example.com","password":"nope"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", w.Code)
	}
	if decodeEnvelope(t, w).Error.Code != string(apperr.KindInvalidCredentials) {
		t.Fatalf("expected invalid_credentials")
	}
}

func TestMeHandler(t *testing.T) {
	fake := &fakeAuth{meFn: func(ctx context.Context, userID string) (user.User, error) {
		return user.User{ID: userID, Name: "Ada", Email: "ada@example.com"}, nil
	}}
	h := handlers.NewAuthHandler(fake)

	w := doJSON(setupRouter(http.MethodGet, "/auth/me", h.Me, "u-1"), http.MethodGet, "/auth/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	w = doJSON(setupRouter(http.MethodGet, "/auth/me", h.Me, ""), http.MethodGet, "/auth/me", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got %d", w.Code)
	}
}

func TestLogoutHandler(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeAuth{})

	w := doJSON(setupRouter(http.MethodPost, "/auth/logout", h.Logout, "u-1"), http.MethodPost, "/auth/logout", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
}
