package domain

import "time"

// Account is a registered identity. PasswordHash is an encoded argon2id
// string and is only ever written by the credential store.
type Account struct {
	ID           AccountID `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Username     string    `gorm:"type:varchar(50);not null" db:"username" json:"username"`
	Email        string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_accounts_email" db:"email" json:"email"`
	PasswordHash string    `gorm:"type:text;not null" db:"password_hash" json:"-"`
	IsVerified   bool      `gorm:"not null;default:false" db:"is_verified" json:"isVerified"`
	CreatedAt    time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (Account) TableName() string { return "accounts" }
