package jwt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fotcopier/printshop/pkg/auth"
	"github.com/fotcopier/printshop/pkg/logging"
)

func issue(t *testing.T, secret, issuer string, ttl time.Duration, id uuid.UUID) string {
	t.Helper()
	tok, err := NewGenerator(secret, issuer, ttl).Generate(context.Background(), auth.User{ID: id})
	require.NoError(t, err)
	return tok
}

// issueAt signs a token as if generated at the given instant.
func issueAt(t *testing.T, at time.Time, ttl time.Duration, id uuid.UUID) string {
	t.Helper()
	g := NewGenerator("k", "printshop", ttl)
	g.now = func() time.Time { return at }
	tok, err := g.Generate(context.Background(), auth.User{ID: id})
	require.NoError(t, err)
	return tok
}

func TestGenerate_ClaimsFollowClock(t *testing.T) {
	t.Parallel()
	at := time.Now().Add(-10 * time.Minute).Truncate(time.Second)
	id := uuid.New()
	tok := issueAt(t, at, time.Hour, id)

	var claims Claims
	_, err := jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (any, error) { return []byte("k"), nil })
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.Subject)
	assert.Equal(t, "printshop", claims.Issuer)
	assert.True(t, at.Equal(claims.IssuedAt.Time))
	assert.True(t, at.Add(time.Hour).Equal(claims.ExpiresAt.Time))

	got, err := NewVerifier("k", "printshop").Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	tok := issue(t, "k", "printshop", time.Hour, id)

	got, err := NewVerifier("k", "printshop").Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerify_Failures(t *testing.T) {
	t.Parallel()
	id := uuid.New()

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   id.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "printshop",
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte("k"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "   ", ErrMissingToken},
		{"garbage", "abc.def.ghi", ErrInvalidToken},
		{"expired", issueAt(t, time.Now().Add(-2*time.Hour), time.Hour, id), ErrInvalidToken},
		{"wrong secret", issue(t, "other", "printshop", time.Hour, id), ErrInvalidToken},
		{"wrong issuer", issue(t, "k", "someone-else", time.Hour, id), ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
		{"bad subject", badSubject, ErrInvalidToken},
	}
	v := NewVerifier("k", "printshop")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", TokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", TokenFromHeader("bearer  abc "))
	assert.Equal(t, "abc", TokenFromHeader("abc"))
	assert.Equal(t, "", TokenFromHeader(""))
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("k", "printshop")
	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(v, logging.Discard()), func(c *fiber.Ctx) error {
		id, _ := c.Locals(LocalsUserID).(uuid.UUID)
		return c.SendString(id.String())
	})

	id := uuid.New()
	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusForbidden},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"expired", issueAt(t, time.Now().Add(-2*time.Hour), time.Hour, id), http.StatusUnauthorized},
		{"raw token", issue(t, "k", "printshop", time.Hour, id), http.StatusOK},
		{"bearer token", "Bearer " + issue(t, "k", "printshop", time.Hour, id), http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
			if tc.status == http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, id.String(), string(body))
			}
		})
	}
}
