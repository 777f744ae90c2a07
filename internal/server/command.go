package server

import (
	"encoding/hex"
	"strconv"

	"go.eeprom/internal/eeprom"
	"go.eeprom/internal/engine"
)

func (s *Server) authCommand(sess *Session, parts []string) Response {
	if len(parts) != 3 {
		return Usage("AUTH <username> <password>")
	}

	u, err := s.auth.Authenticate(parts[1], parts[2])
	if err != nil {
		s.log.Warnf("failed login for %q", parts[1])
		return Err(Msg(err.Error()))
	}

	sess.user = u
	s.log.Infof("%s authenticated as %s", u.Username, u.Role)
	return Respond(OK)
}

// canRead and canWrite return a non-empty response when the session may not
// go ahead.
func canRead(sess *Session) (Response, bool) {
	if !sess.IsAuth() {
		return Err(NoAuth), false
	}
	if !sess.user.CanRead() {
		return Err(NoPerm), false
	}
	return Response{}, true
}

func canWrite(sess *Session) (Response, bool) {
	if !sess.IsAuth() {
		return Err(NoAuth), false
	}
	if !sess.user.CanWrite() {
		return Err(NoPerm), false
	}
	return Response{}, true
}

func (s *Server) getCommand(sess *Session, parts []string) Response {
	if resp, ok := canRead(sess); !ok {
		return resp
	}
	if len(parts) != 2 {
		return Usage("GET <addr>")
	}

	addr, err := engine.ParseWord(parts[1])
	if err != nil {
		return Err(Msg(err.Error()))
	}

	val, err := s.db.Get(addr)
	if err != nil {
		return Err(Msg(err.Error()))
	}
	return Respondf("0x%04X", val)
}

func (s *Server) setCommand(sess *Session, parts []string) Response {
	if resp, ok := canWrite(sess); !ok {
		return resp
	}
	if len(parts) != 3 {
		return Usage("SET <addr> <val>")
	}

	addr, err := engine.ParseWord(parts[1])
	if err != nil {
		return Err(Msg(err.Error()))
	}
	val, err := engine.ParseWord(parts[2])
	if err != nil {
		return Err(Msg(err.Error()))
	}

	if err := s.db.Set(addr, val); err != nil {
		return Err(Msg(err.Error()))
	}
	return Respond(OK)
}

func (s *Server) delCommand(sess *Session, parts []string) Response {
	if resp, ok := canWrite(sess); !ok {
		return resp
	}
	if len(parts) != 2 {
		return Usage("DEL <addr>")
	}

	addr, err := engine.ParseWord(parts[1])
	if err != nil {
		return Err(Msg(err.Error()))
	}

	deleted, err := s.db.Delete(addr)
	if err != nil {
		return Err(Msg(err.Error()))
	}
	if !deleted {
		return Err(Msg(eeprom.ErrNotFound.Error()))
	}
	return Respond(OK)
}

func (s *Server) getArrayCommand(sess *Session, parts []string) Response {
	if resp, ok := canRead(sess); !ok {
		return resp
	}
	if len(parts) != 2 && len(parts) != 3 {
		return Usage("GETA <addr> [max]")
	}

	addr, err := engine.ParseWord(parts[1])
	if err != nil {
		return Err(Msg(err.Error()))
	}
	maxLen := eeprom.MaxArrayLen
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return Err(Msg("max must be a positive number"))
		}
		maxLen = n
	}

	data, err := s.db.GetArray(addr, maxLen)
	if err != nil {
		return Err(Msg(err.Error()))
	}
	return Respond(Msg(hex.EncodeToString(data)))
}

func (s *Server) setArrayCommand(sess *Session, parts []string) Response {
	if resp, ok := canWrite(sess); !ok {
		return resp
	}
	if len(parts) != 3 {
		return Usage("SETA <addr> <hexbytes>")
	}

	addr, err := engine.ParseWord(parts[1])
	if err != nil {
		return Err(Msg(err.Error()))
	}
	data, err := engine.ParseHex(parts[2])
	if err != nil {
		return Err(Msg(err.Error()))
	}

	if err := s.db.SetArray(addr, data); err != nil {
		return Err(Msg(err.Error()))
	}
	return Respond(OK)
}

func (s *Server) delArrayCommand(sess *Session, parts []string) Response {
	if resp, ok := canWrite(sess); !ok {
		return resp
	}
	if len(parts) != 2 {
		return Usage("DELA <addr>")
	}

	addr, err := engine.ParseWord(parts[1])
	if err != nil {
		return Err(Msg(err.Error()))
	}

	deleted, err := s.db.DeleteArray(addr)
	if err != nil {
		return Err(Msg(err.Error()))
	}
	if !deleted {
		return Err(Msg(eeprom.ErrNotFound.Error()))
	}
	return Respond(OK)
}

func (s *Server) countCommand(sess *Session, parts []string) Response {
	if resp, ok := canRead(sess); !ok {
		return resp
	}
	if len(parts) != 1 {
		return Usage("COUNT")
	}
	return Respondf("%d", s.db.EraseCounter())
}

func (s *Server) infoCommand(sess *Session, parts []string) Response {
	if resp, ok := canRead(sess); !ok {
		return resp
	}
	if len(parts) != 1 {
		return Usage("INFO")
	}

	st := s.db.Stats()
	return Respondf(
		"pages=%d active=%d receiving=%d used=%d/%d live=%d erase_count=%d",
		st.Pages,
		st.ActivePage,
		st.ReceivingPage,
		st.UsedSlots,
		st.SlotsPerPage,
		st.LiveVariables,
		st.EraseCounter,
	)
}
