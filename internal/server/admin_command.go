package server

import (
	"go.eeprom/internal/auth"
)

func isAdmin(sess *Session) (Response, bool) {
	if !sess.IsAuth() {
		return Err(NoAuth), false
	}
	if !sess.user.CanFormat() {
		return Err(NoPerm), false
	}
	return Response{}, true
}

func (s *Server) formatCommand(sess *Session, parts []string) Response {
	if resp, ok := isAdmin(sess); !ok {
		return resp
	}
	if len(parts) != 1 {
		return Usage("FORMAT")
	}

	if err := s.db.Format(); err != nil {
		return Err(Msg(err.Error()))
	}
	s.log.Warnf("store formatted by %s", sess.user.Username)
	return Respond(OK)
}

func (s *Server) createUserCommand(sess *Session, parts []string) Response {
	if resp, ok := isAdmin(sess); !ok {
		return resp
	}
	if len(parts) != 4 {
		return Usage("USERADD <username> <password> <role>")
	}

	username := parts[1]

	if user, _ := s.auth.Store().GetUser(username); user != nil {
		return Err(Msg("User already exists"))
	}

	role, err := auth.ParseRole(parts[3])
	if err != nil {
		return Err(Msg(err.Error()))
	}

	hash, err := auth.HashPassword(parts[2])
	if err != nil {
		return Err(Msg("Failed to hash password"))
	}

	u := &auth.User{
		Username: username,
		Password: string(hash),
		Role:     role,
	}

	if err := s.auth.Store().SaveUser(u); err != nil {
		return Err(Msg(err.Error()))
	}

	return Respond(OK)
}

func (s *Server) delUserCommand(sess *Session, parts []string) Response {
	if resp, ok := isAdmin(sess); !ok {
		return resp
	}
	if len(parts) != 2 {
		return Usage("USERDEL <username>")
	}

	if parts[1] == sess.user.Username {
		return Err(Msg("Cannot delete the current user"))
	}

	if err := s.auth.Store().DeleteUser(parts[1]); err != nil {
		return Err(Msg(err.Error()))
	}

	return Respond(OK)
}
