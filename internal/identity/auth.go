package identity

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticator resolves usernames to roles and issues bearer tokens.
type Authenticator struct {
	users  Repository
	secret string
}

func NewAuthenticator(users Repository, secret string) *Authenticator {
	return &Authenticator{users: users, secret: secret}
}

// Login checks the password and returns a signed token for the user.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, *User, error) {
	u, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	tok, err := MakeToken(u, a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return tok, u, nil
}

// Resolve parses a bearer token back into the caller's identity.
func (a *Authenticator) Resolve(raw string) (*Claims, error) {
	return ParseToken(raw, a.secret)
}
