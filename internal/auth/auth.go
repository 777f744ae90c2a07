package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Authenticator struct {
	store Store
}

func NewAuthenticator(store Store) *Authenticator {
	return &Authenticator{store: store}
}

func (a *Authenticator) Store() Store {
	return a.store
}

// Authenticate does not tell an unknown user apart from a wrong password.
func (a *Authenticator) Authenticate(username, password string) (*User, error) {
	u, err := a.store.GetUser(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
