package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"artifact-server-go/internal/platform/errors"
)

// Identity is the claim set extracted from a verified session token.
type Identity struct {
	Email string
}

// Manager signs and verifies session tokens. Sessions are stateless:
// validity is determined entirely by signature and expiry, there is no
// server-side revocation list.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager with the given signing secret and
// token lifetime.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New(errors.KindBootstrap, "auth.new_manager", "signing secret is required")
	}
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs the supplied claims with the manager's secret and lifetime.
// The claims are caller-controlled by contract: issuance does not verify
// that the caller owns the identity it requests a token for.
func (m *Manager) Issue(claims map[string]interface{}) (string, error) {
	mapClaims := jwt.MapClaims{}
	for key, value := range claims {
		mapClaims[key] = value
	}

	now := time.Now()
	mapClaims["iat"] = now.Unix()
	mapClaims["exp"] = now.Add(m.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(errors.KindAuth, "auth.issue", "failed to sign token", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and extracts the identity. Any
// failure, including a missing email claim, is reported as an auth error.
func (m *Manager) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, errors.New(errors.KindAuth, "auth.verify", "missing token")
	}

	token, err := jwt.Parse(
		tokenString,
		func(token *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, errors.Wrap(errors.KindAuth, "auth.verify", "invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New(errors.KindAuth, "auth.verify", "invalid token")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New(errors.KindAuth, "auth.verify", "token carries no email claim")
	}

	return &Identity{Email: email}, nil
}
