package service

// PasswordService derives and checks encoded password hashes.
type PasswordService interface {
	Hash(password string) (string, error)
	// Verify reports whether password matches encoded. A malformed encoded
	// hash is an error, a mismatch is (false, nil).
	Verify(password, encoded string) (bool, error)
}
