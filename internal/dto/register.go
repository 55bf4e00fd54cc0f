package dto

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	AccountID string `json:"-"`
	// VerificationSent is false when the account was created but the
	// verification email could not be queued.
	VerificationSent bool `json:"-"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}
