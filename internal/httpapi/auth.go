package httpapi

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"pdvbalcao/backend/internal/activation"
	"pdvbalcao/backend/internal/domain"
)

// SessionManager exchanges a valid license key for a signed session token and
// verifies tokens on every subsequent request. There are no user accounts; the
// subject of a token is the activated client name.
type SessionManager struct {
	secret    []byte
	tokenTTL  time.Duration
	validator *activation.Validator
}

type sessionClaims struct {
	jwtlib.RegisteredClaims
}

func NewSessionManager(secret string, tokenTTL time.Duration, validator *activation.Validator) *SessionManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &SessionManager{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		validator: validator,
	}
}

// Activate checks the license key and, on success, issues the session token.
func (m *SessionManager) Activate(req domain.ActivationRequest) (domain.ActivationResponse, error) {
	clientName := strings.TrimSpace(req.ClientName)
	if clientName == "" {
		return domain.ActivationResponse{}, errors.New("client name required")
	}
	if !m.validator.Validate(clientName, req.LicenseKey) {
		return domain.ActivationResponse{}, errors.New("invalid license key")
	}

	expiresAt := time.Now().UTC().Add(m.tokenTTL)
	token, err := m.sign(clientName, expiresAt)
	if err != nil {
		return domain.ActivationResponse{}, err
	}

	return domain.ActivationResponse{
		AccessToken: token,
		ClientName:  clientName,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (m *SessionManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &sessionClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{ClientName: sub}, nil
}

func (m *SessionManager) sign(clientName string, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   clientName,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "pdvbalcao",
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
