package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"authsvc/internal/domain"
	"authsvc/internal/service"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountStore is the credential store. It owns password hashing: the
// plaintext never leaves Create and the hash is written only there.
type AccountStore struct {
	db        *gorm.DB
	passwords service.PasswordService

	dummyOnce sync.Once
	dummyHash string
}

func (s *Store) Accounts(passwords service.PasswordService) *AccountStore {
	return &AccountStore{db: s.DB, passwords: passwords}
}

// Create validates and normalizes the fields, hashes the password and inserts
// the row. Email uniqueness is enforced by the ux_accounts_email index, so
// concurrent registrations of the same address cannot both succeed.
func (a *AccountStore) Create(ctx context.Context, username, email, password string) (*domain.Account, error) {
	in, err := domain.ValidateNewAccount(username, email, password)
	if err != nil {
		return nil, err
	}

	hash, err := a.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	acc := &domain.Account{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.db.WithContext(ctx).Create(acc).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return acc, nil
}

func (a *AccountStore) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var acc domain.Account
	if err := a.db.WithContext(ctx).First(&acc, "email = ?", domain.NormalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (a *AccountStore) FindByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	var acc domain.Account
	if err := a.db.WithContext(ctx).First(&acc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// MarkVerified flips is_verified for an unverified account and returns the
// current row. Only is_verified and updated_at are written; an account that
// is already verified is left untouched.
func (a *AccountStore) MarkVerified(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	var out *domain.Account
	err := (&Store{DB: a.db}).WithTx(ctx, func(tx *Store) error {
		err := tx.DB.WithContext(ctx).Model(&domain.Account{}).
			Where("id = ? AND is_verified = ?", id, false).
			UpdateColumns(map[string]any{
				"is_verified": true,
				"updated_at":  time.Now().UTC(),
			}).Error
		if err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}
		out, err = tx.Accounts(a.passwords).FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyPassword checks password against acc's stored hash. A nil account is
// checked against a throwaway hash so the caller pays the same cost whether
// or not the email exists.
func (a *AccountStore) VerifyPassword(acc *domain.Account, password string) bool {
	encoded := a.dummy()
	if acc != nil {
		encoded = acc.PasswordHash
	}
	ok, err := a.passwords.Verify(password, encoded)
	return err == nil && ok && acc != nil
}

func (a *AccountStore) dummy() string {
	a.dummyOnce.Do(func() {
		// Any valid encoding works; the result is discarded.
		if h, err := a.passwords.Hash(uuid.NewString()); err == nil {
			a.dummyHash = h
		}
	})
	return a.dummyHash
}
