package server

import "go.eeprom/internal/auth"

type Session struct {
	user *auth.User
}

func (s *Session) IsAuth() bool {
	return s.user != nil
}
