package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
	"github.com/Salama0/ITI-Examination-System/internal/domain/rbac"
	"github.com/Salama0/ITI-Examination-System/internal/service"
)

// mockResolver — мок для IdentityResolver.
type mockResolver struct {
	identities map[string]*model.Identity
	err        error
	gotToken   string
}

func (m *mockResolver) Resolve(_ context.Context, token string) (*model.Identity, error) {
	m.gotToken = token
	if m.err != nil {
		return nil, m.err
	}
	identity, ok := m.identities[token]
	if !ok {
		return nil, fmt.Errorf("%w: неизвестный токен", service.ErrUnauthorized)
	}
	return identity, nil
}

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// errorResponse — тело ответа ошибки для проверок.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("не удалось разобрать тело ошибки: %v", err)
	}
	return body
}

func newTestResolver() *mockResolver {
	return &mockResolver{identities: map[string]*model.Identity{
		"manager-token":    {UserID: 1, Email: "m@x.com", Role: rbac.RoleManager, FullName: "Nour"},
		"instructor-token": {UserID: 2, Email: "i@x.com", Role: rbac.RoleInstructor, FullName: "Ivan"},
		"student-token":    {UserID: 3, Email: "s@x.com", Role: rbac.RoleStudent, FullName: "Mona"},
	}}
}

// TestBearerAuth_ValidToken — профиль попадает в контекст.
func TestBearerAuth_ValidToken(t *testing.T) {
	resolver := newTestResolver()
	auth := NewBearerAuth(resolver, testLogger())

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		if identity == nil {
			t.Fatal("профиль не найден в контексте")
		}
		if identity.UserID != 2 {
			t.Errorf("ожидался UserID=2, получен %d", identity.UserID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "bearer instructor-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d", rec.Code)
	}
	if resolver.gotToken != "instructor-token" {
		t.Errorf("в resolver передан токен %q", resolver.gotToken)
	}
}

// TestBearerAuth_Rejections — отказы аутентификации.
func TestBearerAuth_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		resolverErr error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "нет заголовка",
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "UNAUTHORIZED",
			wantMessage: "Not authenticated",
		},
		{
			name:        "не Bearer",
			header:      "Basic dXNlcjpwYXNz",
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "UNAUTHORIZED",
			wantMessage: "Not authenticated",
		},
		{
			name:        "пустой токен",
			header:      "Bearer ",
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "UNAUTHORIZED",
			wantMessage: "Not authenticated",
		},
		{
			name:        "неизвестный токен",
			header:      "Bearer forged",
			wantStatus:  http.StatusUnauthorized,
			wantCode:    "UNAUTHORIZED",
			wantMessage: "Could not validate credentials",
		},
		{
			name:        "хранилище недоступно",
			header:      "Bearer manager-token",
			resolverErr: fmt.Errorf("%w: connection refused", service.ErrUpstreamUnavailable),
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    "UPSTREAM_UNAVAILABLE",
		},
		{
			name:        "неожиданная ошибка",
			header:      "Bearer manager-token",
			resolverErr: errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newTestResolver()
			resolver.err = tt.resolverErr
			auth := NewBearerAuth(resolver, testLogger())

			handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				t.Fatal("handler не должен вызываться")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("ожидался %d, получен %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := rec.Header().Get("WWW-Authenticate"); got != "Bearer" {
					t.Errorf("WWW-Authenticate = %q, ожидался Bearer", got)
				}
			}

			body := decodeError(t, rec)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, ожидался %q", body.Error.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && body.Error.Message != tt.wantMessage {
				t.Errorf("message = %q, ожидался %q", body.Error.Message, tt.wantMessage)
			}
		})
	}
}

// TestRequireRole — ролевой шлюз: 401 без профиля, 403 при несовпадении роли.
func TestRequireRole(t *testing.T) {
	resolver := newTestResolver()
	auth := NewBearerAuth(resolver, testLogger())

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		token       string
		roles       []string
		wantStatus  int
		wantMessage string
	}{
		{"Instructor на Instructor", "instructor-token", []string{rbac.RoleInstructor}, http.StatusOK, ""},
		{"Student на Instructor", "student-token", []string{rbac.RoleInstructor}, http.StatusForbidden,
			"Access denied. Required role: Instructor"},
		{"Manager на набор ролей", "manager-token", []string{rbac.RoleInstructor, rbac.RoleStudent}, http.StatusForbidden,
			"Access denied. Required role: Instructor, Student"},
		{"Student в наборе ролей", "student-token", []string{rbac.RoleInstructor, rbac.RoleStudent}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := auth.Middleware()(RequireRole(tt.roles...)(ok))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("ожидался %d, получен %d", tt.wantStatus, rec.Code)
			}
			if tt.wantMessage != "" {
				body := decodeError(t, rec)
				if body.Error.Code != "FORBIDDEN" || body.Error.Message != tt.wantMessage {
					t.Errorf("ошибка = %+v, ожидалось FORBIDDEN / %q", body.Error, tt.wantMessage)
				}
			}
		})
	}

	t.Run("без BearerAuth", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireRole(rbac.RoleManager)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("ожидался 401, получен %d", rec.Code)
		}
	})
}
