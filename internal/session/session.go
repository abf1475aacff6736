// Package session issues and verifies the signed session cookie of the account surface.
package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/PratikDhanave/adserve-sdk-service/internal/config"
	"github.com/PratikDhanave/adserve-sdk-service/internal/models"
)

const (
	CookieName = "openads_session"
	Issuer     = "openads"
	Audience   = "openads-web"
	TTL        = 7 * 24 * time.Hour
)

// Claims is the verified content of a session token.
type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with one HMAC secret.
type Manager struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewManager rejects secrets shorter than config.MinSecretLength.
func NewManager(secret []byte, secure bool) (*Manager, error) {
	if len(secret) < config.MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", config.MinSecretLength)
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Manager{secret: key, secure: secure, now: time.Now}, nil
}

// WithClock replaces the time source. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue returns a signed HS256 token for the user, valid for TTL.
func (m *Manager) Issue(userID, email string, role models.Role) (string, error) {
	now := m.now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

// Verify returns the claims of a valid token. Any failure yields ok=false.
func (m *Manager) Verify(token string) (*Claims, bool) {
	if token == "" {
		return nil, false
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	if claims.Subject == "" || claims.Email == "" || claims.Role == "" {
		return nil, false
	}
	return &claims, true
}

// SetCookie writes the session cookie for token.
func (m *Manager) SetCookie(c *gin.Context, token string) {
	m.writeCookie(c, token, int(TTL/time.Second))
}

// ClearCookie writes an immediately expiring session cookie.
func (m *Manager) ClearCookie(c *gin.Context) {
	m.writeCookie(c, "", -1)
}

func (m *Manager) writeCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// FromRequest verifies the session cookie of c, if any.
func (m *Manager) FromRequest(c *gin.Context) (*Claims, bool) {
	token, err := c.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return m.Verify(token)
}
