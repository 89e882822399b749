package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Salama0/ITI-Examination-System/internal/domain/rbac"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fixedClock — управляемые часы для тестов.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func newTestIssuer(t *testing.T, clock *fixedClock) *TokenIssuer {
	t.Helper()
	ti, err := NewTokenIssuer(testSecret, "HS256", time.Hour, WithClock(clock.now))
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return ti
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	clock := &fixedClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	ti := newTestIssuer(t, clock)

	tok, _, err := ti.Issue(42, "a@x.com", rbac.RoleInstructor, ti.TTL())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := ti.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, хотели 42", claims.UserID)
	}
	if claims.Email != "a@x.com" {
		t.Errorf("Email = %q, хотели a@x.com", claims.Email)
	}
	if claims.Role != rbac.RoleInstructor {
		t.Errorf("Role = %q, хотели %q", claims.Role, rbac.RoleInstructor)
	}
	wantExp := clock.t.Add(time.Hour)
	if !claims.ExpiresAt.Equal(wantExp) {
		t.Errorf("ExpiresAt = %v, хотели %v", claims.ExpiresAt, wantExp)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		offset  time.Duration
		wantErr error
	}{
		{name: "сразу после выпуска", offset: 0},
		{name: "за секунду до истечения", offset: time.Hour - time.Second},
		{name: "ровно в момент истечения", offset: time.Hour, wantErr: ErrTokenExpired},
		{name: "после истечения", offset: 2 * time.Hour, wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fixedClock{t: issuedAt}
			ti := newTestIssuer(t, clock)

			tok, _, err := ti.Issue(1, "s@x.com", rbac.RoleStudent, time.Hour)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}

			clock.t = issuedAt.Add(tt.offset)
			_, err = ti.Verify(tok)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify: неожиданная ошибка %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify: ошибка %v, хотели %v", err, tt.wantErr)
			}
		})
	}
}

// Момент выпуска с долями секунды: токен действителен до issuedAt + ttl
// и истекает ровно в этот момент.
func TestVerify_FractionalIssueTime(t *testing.T) {
	clock := &fixedClock{t: time.Date(2025, 3, 1, 10, 0, 0, 900_000_000, time.UTC)}
	ti := newTestIssuer(t, clock)

	tok, expiresAt, err := ti.Issue(1, "s@x.com", rbac.RoleStudent, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if want := issuedAt.Add(time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, хотели %v", expiresAt, want)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "в момент выпуска", at: clock.t},
		{name: "за 100мс до истечения", at: expiresAt.Add(-100 * time.Millisecond)},
		{name: "ровно в момент истечения", at: expiresAt, wantErr: ErrTokenExpired},
		{name: "через 400мс после истечения", at: expiresAt.Add(400 * time.Millisecond), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.t = tt.at
			claims, err := ti.Verify(tok)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify: неожиданная ошибка %v", err)
				}
				if !claims.ExpiresAt.Equal(expiresAt) {
					t.Errorf("ExpiresAt = %v, хотели %v", claims.ExpiresAt, expiresAt)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify: ошибка %v, хотели %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	other, err := NewTokenIssuer(strings.Repeat("z", 32), "HS256", time.Hour, WithClock(clock.now))
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	tok, _, err := other.Issue(7, "m@x.com", rbac.RoleManager, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = newTestIssuer(t, clock).Verify(tok)
	if !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("Verify: ошибка %v, хотели ErrTokenBadSignature", err)
	}
}

func TestVerify_WrongSecretAndExpired(t *testing.T) {
	clock := &fixedClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	other, err := NewTokenIssuer(strings.Repeat("z", 32), "HS256", time.Hour, WithClock(clock.now))
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	tok, _, err := other.Issue(7, "m@x.com", rbac.RoleManager, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.t = clock.t.Add(time.Hour)
	_, err = newTestIssuer(t, clock).Verify(tok)
	if !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("Verify: ошибка %v, хотели ErrTokenBadSignature", err)
	}
}

func TestVerify_AlgorithmMismatch(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	hs512, err := NewTokenIssuer(testSecret, "HS512", time.Hour, WithClock(clock.now))
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	tok, _, err := hs512.Issue(3, "i@x.com", rbac.RoleInstructor, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = newTestIssuer(t, clock).Verify(tok)
	if !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("Verify: ошибка %v, хотели ErrTokenBadSignature", err)
	}
}

func TestVerify_NoneAlgorithm(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	claims := jwt.MapClaims{
		"sub":       "1",
		"email":     "m@x.com",
		"user_type": rbac.RoleManager,
		"exp":       clock.t.Add(time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	_, err = newTestIssuer(t, clock).Verify(tok)
	if !errors.Is(err, ErrTokenBadSignature) {
		t.Fatalf("Verify: ошибка %v, хотели ErrTokenBadSignature", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	clock := &fixedClock{t: time.Now()}
	ti := newTestIssuer(t, clock)

	sign := func(claims jwt.MapClaims) string {
		t.Helper()
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("SignedString: %v", err)
		}
		return tok
	}
	exp := clock.t.Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{name: "пустая строка", token: ""},
		{name: "мусор", token: "not-a-token"},
		{name: "два сегмента", token: "abc.def"},
		{name: "битый base64", token: "###.###.###"},
		{name: "нет exp", token: sign(jwt.MapClaims{"sub": "1", "user_type": rbac.RoleStudent})},
		{name: "sub не число", token: sign(jwt.MapClaims{"sub": "abc", "user_type": rbac.RoleStudent, "exp": exp})},
		{name: "нет sub", token: sign(jwt.MapClaims{"user_type": rbac.RoleStudent, "exp": exp})},
		{name: "неизвестная роль", token: sign(jwt.MapClaims{"sub": "1", "user_type": "Admin", "exp": exp})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ti.Verify(tt.token)
			if !errors.Is(err, ErrTokenMalformed) {
				t.Fatalf("Verify(%q): ошибка %v, хотели ErrTokenMalformed", tt.token, err)
			}
		})
	}
}

func TestNewTokenIssuer_Errors(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		ttl       time.Duration
	}{
		{name: "пустой секрет", secret: "", algorithm: "HS256", ttl: time.Hour},
		{name: "RS256", secret: testSecret, algorithm: "RS256", ttl: time.Hour},
		{name: "none", secret: testSecret, algorithm: "none", ttl: time.Hour},
		{name: "нулевой ttl", secret: testSecret, algorithm: "HS256", ttl: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenIssuer(tt.secret, tt.algorithm, tt.ttl); err == nil {
				t.Fatal("ожидалась ошибка, получено nil")
			}
		})
	}
}
