package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"authsvc/internal/domain"
	"authsvc/internal/dto"
	"authsvc/internal/events"
	"authsvc/internal/observability/metrics"
	"authsvc/internal/observability/middleware"
	"authsvc/internal/service"
)

var _ service.AuthService = (*AuthServiceImpl)(nil)

type AuthConfig struct {
	// AppURL is the front-end origin; the verification link points at
	// AppURL + "/login?verification_token=<token>".
	AppURL string
}

type AuthServiceImpl struct {
	Accounts accountStore
	TService service.TokenService
	Mail     service.EmailDispatcher
	Limiter  service.LoginLimiter // optional
	cfg      AuthConfig
}

func NewAuthServiceImpl(
	accounts accountStore,
	tokens service.TokenService,
	mail service.EmailDispatcher,
	limiter service.LoginLimiter,
	cfg AuthConfig,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		Accounts: accounts,
		TService: tokens,
		Mail:     mail,
		Limiter:  limiter,
		cfg:      cfg,
	}
}

type accountStore interface {
	Create(ctx context.Context, username, email, password string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	MarkVerified(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	VerifyPassword(acc *domain.Account, password string) bool
}

// Register creates the account and queues its verification email. A failed
// hand-off leaves the account in place and is reported through
// VerificationSent rather than as an error.
func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error) {
	result := "success"
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(result).Inc()
	}()

	acc, err := a.Accounts.Create(ctx, r.Username, r.Email, r.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			result = "invalid"
		case errors.Is(err, domain.ErrDuplicateEmail):
			result = "duplicate"
		default:
			result = "failure"
		}
		return nil, err
	}

	reqID, traceID := middleware.RequestIDFromContext(ctx), middleware.TraceIDFromContext(ctx)
	slog.Info("account registered",
		"event", events.AccountRegistered{AccountID: acc.ID.String(), Email: acc.Email, At: acc.CreatedAt},
		"request_id", reqID, "trace_id", traceID)

	out := &dto.RegisterResponse{AccountID: acc.ID.String()}
	if err := a.sendVerification(ctx, acc.Email); err != nil {
		result = "dispatch_failed"
		slog.Error("verification email not queued", "account_id", acc.ID, "error", err, "request_id", reqID, "trace_id", traceID)
		return out, nil
	}
	out.VerificationSent = true
	return out, nil
}

// VerifyEmail redeems a verification token. Every failure, including a
// token for an email with no account, is ErrInvalidToken. Redeeming a token
// for an account that is already verified succeeds without changes.
func (a *AuthServiceImpl) VerifyEmail(ctx context.Context, token string) error {
	result := "success"
	defer func() {
		metrics.EmailVerificationsTotal.WithLabelValues(result).Inc()
	}()
	reqID := middleware.RequestIDFromContext(ctx)

	claims, err := a.TService.Verify(strings.TrimSpace(token))
	if err != nil || !claims.IsVerification() {
		result = "invalid"
		slog.Info("verification token rejected", "reason", tokenRejectReason(err), "request_id", reqID)
		return domain.ErrInvalidToken
	}

	acc, err := a.Accounts.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			result = "invalid"
			return domain.ErrInvalidToken
		}
		result = "failure"
		return err
	}
	if acc.IsVerified {
		return nil
	}

	if _, err := a.Accounts.MarkVerified(ctx, acc.ID); err != nil {
		result = "failure"
		return err
	}
	slog.Info("email verified", "account_id", acc.ID, "request_id", reqID)
	return nil
}

// ResendVerification issues a fresh token for an unverified account. Unknown
// and already verified emails return nil so the caller cannot tell them apart.
func (a *AuthServiceImpl) ResendVerification(ctx context.Context, email string) error {
	acc, err := a.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if acc.IsVerified {
		return nil
	}
	return a.sendVerification(ctx, acc.Email)
}

// Login checks the password before the verification gate so that
// ErrEmailNotVerified is only revealed to a caller who knows the password.
func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest) (*dto.SessionToken, error) {
	result := "success"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()
	reqID := middleware.RequestIDFromContext(ctx)

	email := domain.NormalizeEmail(r.Email)
	if email == "" || r.Password == "" {
		result = "invalid_credentials"
		return nil, domain.ErrInvalidCredentials
	}

	if a.Limiter != nil {
		if err := a.Limiter.Allow(ctx, email); err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				result = "rate_limited"
				return nil, err
			}
			slog.Warn("login limiter unavailable, allowing attempt", "error", err, "request_id", reqID)
		}
	}

	acc, err := a.Accounts.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		result = "failure"
		return nil, err
	}
	// acc is nil for unknown emails; VerifyPassword still does the work.
	if !a.Accounts.VerifyPassword(acc, r.Password) {
		result = "invalid_credentials"
		return nil, domain.ErrInvalidCredentials
	}
	if !acc.IsVerified {
		result = "not_verified"
		return nil, domain.ErrEmailNotVerified
	}

	if a.Limiter != nil {
		if err := a.Limiter.Reset(ctx, email); err != nil {
			slog.Warn("login limiter reset failed", "error", err, "request_id", reqID)
		}
	}

	tok, err := a.TService.IssueSessionToken(acc.ID, acc.Username)
	if err != nil {
		result = "failure"
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	slog.Info("login succeeded", "account_id", acc.ID, "request_id", reqID, "trace_id", middleware.TraceIDFromContext(ctx))
	return &tok, nil
}

// Logout has nothing to revoke server-side; the transport clears the cookie.
func (a *AuthServiceImpl) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	if claims, err := a.TService.Verify(sessionToken); err == nil && claims.IsSession() {
		slog.Info("logout", "account_id", claims.AccountID, "request_id", middleware.RequestIDFromContext(ctx))
	}
	return nil
}

func (a *AuthServiceImpl) WhoAmI(ctx context.Context, sessionToken string) (*dto.MeResponse, error) {
	if sessionToken == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := a.TService.Verify(sessionToken)
	if err != nil || !claims.IsSession() {
		slog.Info("session token rejected", "reason", tokenRejectReason(err), "request_id", middleware.RequestIDFromContext(ctx))
		return nil, domain.ErrForbidden
	}
	return &dto.MeResponse{ID: claims.AccountID, Username: claims.Username}, nil
}

func (a *AuthServiceImpl) GetUser(ctx context.Context, id string) (*dto.UserResponse, error) {
	accountID, err := domain.ParseAccountID(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrNotFound
	}
	acc, err := a.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &dto.UserResponse{Username: acc.Username, Email: acc.Email}, nil
}

func (a *AuthServiceImpl) sendVerification(ctx context.Context, email string) error {
	token, err := a.TService.IssueVerificationToken(email)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}
	return a.Mail.Dispatch(ctx, events.NewVerificationEmail(email, a.verificationLink(token)))
}

func (a *AuthServiceImpl) verificationLink(token string) string {
	return strings.TrimRight(a.cfg.AppURL, "/") + "/login?verification_token=" + url.QueryEscape(token)
}

func tokenRejectReason(err error) string {
	switch {
	case err == nil:
		return "wrong_kind"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalidSignature):
		return "signature"
	default:
		return "malformed"
	}
}
