package impl

import (
	"errors"
	"time"

	"authsvc/internal/domain"
	"authsvc/internal/dto"
	"authsvc/internal/observability/metrics"
	"authsvc/internal/service"

	"github.com/golang-jwt/jwt/v5"
)

var _ service.TokenService = (*TokenServiceImpl)(nil)

// ====== Config ======

type TokenConfig struct {
	Issuer          string
	SessionTTL      time.Duration // 0 issues session tokens without exp
	VerificationTTL time.Duration // e.g. 24h
	SigningKey      []byte        // HS256 secret
}

// ====== Claims ======

type SessionClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type VerificationClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// tokenClaims is the union used when parsing; which fields are present
// tells the two kinds apart.
type tokenClaims struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ====== Service ======

type TokenServiceImpl struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenServiceHS256(cfg TokenConfig) (*TokenServiceImpl, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, ErrEmptySigningKey
	}
	return &TokenServiceImpl{cfg: cfg, now: time.Now}, nil
}

func (t *TokenServiceImpl) IssueSessionToken(accountID domain.AccountID, username string) (dto.SessionToken, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("session", result).Inc()
	}()

	now := t.now()
	claims := SessionClaims{
		UserID:   accountID.String(),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   t.cfg.Issuer,
			Subject:  accountID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	var exp time.Time
	if t.cfg.SessionTTL > 0 {
		exp = now.Add(t.cfg.SessionTTL)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	signed, err := t.sign(claims)
	if err != nil {
		result = "failure"
		return dto.SessionToken{}, err
	}
	return dto.SessionToken{Token: signed, ExpiresAt: exp}, nil
}

func (t *TokenServiceImpl) IssueVerificationToken(email string) (string, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("verification", result).Inc()
	}()

	now := t.now()
	claims := VerificationClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.VerificationTTL)),
		},
	}
	signed, err := t.sign(claims)
	if err != nil {
		result = "failure"
		return "", err
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry. Failures are
// reported as ErrTokenMalformed, ErrTokenInvalidSignature or ErrTokenExpired.
func (t *TokenServiceImpl) Verify(tokenStr string) (service.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.cfg.Issuer))
	}

	claims := &tokenClaims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil {
		return service.TokenClaims{}, classify(err)
	}
	if claims.UserID == "" && claims.Email == "" {
		return service.TokenClaims{}, ErrTokenMalformed
	}
	return service.TokenClaims{
		AccountID: claims.UserID,
		Username:  claims.Username,
		Email:     claims.Email,
	}, nil
}

// ====== Helpers ======

func (t *TokenServiceImpl) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.SigningKey)
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrTokenInvalidSignature
	default:
		return ErrTokenMalformed
	}
}
