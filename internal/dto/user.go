package dto

type MeResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type UserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
