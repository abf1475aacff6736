package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
)

var (
	secret = []byte("0123456789abcdef0123456789abcdef")
	epoch  = time.Date(2026, 2, 24, 12, 0, 0, 0, time.UTC)
)

func newManager(t *testing.T, now *time.Time) *Manager {
	t.Helper()
	m, err := NewManager(secret, false)
	require.NoError(t, err)
	return m.WithClock(func() time.Time { return *now })
}

func TestNewManager_RejectsShortSecret(t *testing.T) {
	_, err := NewManager([]byte("short"), true)
	require.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	now := epoch
	m := newManager(t, &now)

	token, err := m.Issue("user-1", "user@example.com", models.RoleUser)
	require.NoError(t, err)

	claims, ok := m.Verify(token)
	require.True(t, ok)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, models.RoleUser, claims.Role)
	require.Equal(t, epoch.Add(TTL), claims.ExpiresAt.Time.UTC())

	now = epoch.Add(TTL - time.Second)
	_, ok = m.Verify(token)
	require.True(t, ok)

	now = epoch.Add(TTL + time.Second)
	_, ok = m.Verify(token)
	require.False(t, ok)
}

func signWith(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() Claims {
	return Claims{
		Email: "user@example.com",
		Role:  models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(epoch),
			ExpiresAt: jwt.NewNumericDate(epoch.Add(TTL)),
		},
	}
}

func TestVerify_FailsClosed(t *testing.T) {
	now := epoch
	m := newManager(t, &now)

	good, err := m.Issue("user-1", "user@example.com", models.RoleUser)
	require.NoError(t, err)

	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"mobile"}
	noEmail := validClaims()
	noEmail.Email = ""
	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"tampered":       good[:len(good)-2] + "xx",
		"other secret":   signWith(t, jwt.SigningMethodHS256, []byte(strings.Repeat("z", 32)), validClaims()),
		"hs512":          signWith(t, jwt.SigningMethodHS512, secret, validClaims()),
		"none alg":       signWith(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims()),
		"wrong issuer":   signWith(t, jwt.SigningMethodHS256, secret, wrongIssuer),
		"wrong audience": signWith(t, jwt.SigningMethodHS256, secret, wrongAudience),
		"missing email":  signWith(t, jwt.SigningMethodHS256, secret, noEmail),
		"missing expiry": signWith(t, jwt.SigningMethodHS256, secret, noExpiry),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			claims, ok := m.Verify(token)
			require.False(t, ok)
			require.Nil(t, claims)
		})
	}
}

func TestCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := NewManager(secret, true)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	m.SetCookie(c, "token-value")
	header := w.Header().Get("Set-Cookie")
	require.Contains(t, header, CookieName+"=token-value")
	require.Contains(t, header, "Max-Age=604800")
	require.Contains(t, header, "HttpOnly")
	require.Contains(t, header, "Secure")
	require.Contains(t, header, "SameSite=Strict")
	require.Contains(t, header, "Path=/")

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	m.ClearCookie(c)
	header = w.Header().Get("Set-Cookie")
	require.Contains(t, header, CookieName+"=;")
	require.Contains(t, header, "Max-Age=0")
}

func TestFromRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := epoch
	m := newManager(t, &now)
	token, err := m.Issue("user-1", "user@example.com", models.RoleSuperAdmin)
	require.NoError(t, err)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	_, ok := m.FromRequest(c)
	require.False(t, ok)

	c.Request.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	claims, ok := m.FromRequest(c)
	require.True(t, ok)
	require.Equal(t, models.RoleSuperAdmin, claims.Role)
}
