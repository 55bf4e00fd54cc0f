package service

import (
	"authsvc/internal/dto"
	"context"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, r dto.LoginRequest) (*dto.SessionToken, error)
	Logout(ctx context.Context, sessionToken string) error
	WhoAmI(ctx context.Context, sessionToken string) (*dto.MeResponse, error)
	GetUser(ctx context.Context, id string) (*dto.UserResponse, error)
}
