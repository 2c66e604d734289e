package domain

import "context"

// Service gates the record routes behind one shared credential.
type Service interface {
	Enabled() bool
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
}
