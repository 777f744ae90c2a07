package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	// Everything, including format
	RoleAdmin Role = "admin"
	// Read, write and delete variables
	RoleWriter Role = "writer"
	// Read only
	RoleReader Role = "reader"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleWriter, RoleReader:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

func (u *User) CanRead() bool {
	return u.Role == RoleAdmin || u.Role == RoleWriter || u.Role == RoleReader
}

func (u *User) CanWrite() bool {
	return u.Role == RoleAdmin || u.Role == RoleWriter
}

func (u *User) CanFormat() bool {
	return u.Role == RoleAdmin
}

func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
