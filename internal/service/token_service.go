package service

import (
	"authsvc/internal/domain"
	"authsvc/internal/dto"
)

// TokenClaims is what a verified token carries. Session tokens set
// AccountID and Username; verification tokens set Email.
type TokenClaims struct {
	AccountID string
	Username  string
	Email     string
}

func (c TokenClaims) IsSession() bool      { return c.AccountID != "" }
func (c TokenClaims) IsVerification() bool { return c.Email != "" && c.AccountID == "" }

type TokenService interface {
	IssueSessionToken(accountID domain.AccountID, username string) (dto.SessionToken, error)
	IssueVerificationToken(email string) (string, error)
	Verify(token string) (TokenClaims, error)
}
