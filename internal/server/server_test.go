package server

import (
	"bufio"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.eeprom/internal/auth"
	"go.eeprom/internal/config"
	"go.eeprom/internal/engine"
	"go.eeprom/internal/logger"
)

func newServer(t *testing.T) *Server {
	t.Helper()

	cfg, err := config.LoadConfig(t.TempDir(), "")
	require.NoError(t, err)
	cfg.Addr = "127.0.0.1:0"
	cfg.Flash.PageSize = 256
	cfg.Flash.PagesPerInstance = 2
	cfg.Flash.Pages = 2
	cfg.EEPROM.AutoFormat = true
	require.NoError(t, config.Validate(cfg))

	db, err := engine.Open(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users, err := auth.NewFileStore(filepath.Join(cfg.Home, "users.json"))
	require.NoError(t, err)
	for name, role := range map[string]auth.Role{
		"root":   auth.RoleAdmin,
		"writer": auth.RoleWriter,
		"reader": auth.RoleReader,
	} {
		hash, err := auth.HashPassword("pw")
		require.NoError(t, err)
		require.NoError(t, users.SaveUser(&auth.User{Username: name, Password: string(hash), Role: role}))
	}

	return New(cfg, db, users, logger.Discard())
}

func login(t *testing.T, s *Server, name string) *Session {
	t.Helper()
	sess := &Session{}
	require.Equal(t, OK, s.exec(sess, "AUTH "+name+" pw").Msg)
	return sess
}

func TestCommandsNeedAuth(t *testing.T) {
	s := newServer(t)
	sess := &Session{}

	for _, line := range []string{"GET 1", "SET 1 2", "DEL 1", "GETA 1", "SETA 1 00", "DELA 1", "COUNT", "INFO", "FORMAT"} {
		assert.Equal(t, Err(NoAuth), s.exec(sess, line), line)
	}

	assert.Equal(t, Err("invalid credentials"), s.exec(sess, "AUTH root nope"))
	assert.False(t, sess.IsAuth())
}

func TestSetGetDel(t *testing.T) {
	s := newServer(t)
	sess := login(t, s, "writer")

	assert.Equal(t, OK, s.exec(sess, "SET 0x10 4660").Msg)
	assert.Equal(t, Msg("0x1234"), s.exec(sess, "get 16").Msg)

	assert.Equal(t, OK, s.exec(sess, "DEL 0x10").Msg)
	assert.Contains(t, string(s.exec(sess, "GET 0x10").Msg), "variable not found")
	assert.Contains(t, string(s.exec(sess, "DEL 0x10").Msg), "ERR:")

	assert.Contains(t, string(s.exec(sess, "SET 0xFFFF 1").Msg), "invalid virtual address")
	assert.Contains(t, string(s.exec(sess, "SET 1 70000").Msg), "invalid 16-bit value")
	assert.Equal(t, Usage("SET <addr> <val>"), s.exec(sess, "SET 1"))
}

func TestArrays(t *testing.T) {
	s := newServer(t)
	sess := login(t, s, "writer")

	assert.Equal(t, OK, s.exec(sess, "SETA 0x100 deadbeef").Msg)
	assert.Equal(t, Msg("deadbeef"), s.exec(sess, "GETA 0x100").Msg)
	assert.Contains(t, string(s.exec(sess, "GETA 0x100 2").Msg), "length 4")

	assert.Equal(t, OK, s.exec(sess, "DELA 0x100").Msg)
	assert.Contains(t, string(s.exec(sess, "GETA 0x100").Msg), "variable not found")
	assert.Contains(t, string(s.exec(sess, "SETA 0x100 xyz").Msg), "invalid hex")
}

func TestRoles(t *testing.T) {
	s := newServer(t)

	reader := login(t, s, "reader")
	assert.Equal(t, Err(NoPerm), s.exec(reader, "SET 1 1"))
	assert.Equal(t, Err(NoPerm), s.exec(reader, "DELA 1"))
	assert.Equal(t, Err(NoPerm), s.exec(reader, "FORMAT"))
	assert.Equal(t, Msg("1"), s.exec(reader, "COUNT").Msg)

	writer := login(t, s, "writer")
	assert.Equal(t, Err(NoPerm), s.exec(writer, "FORMAT"))
	assert.Equal(t, Err(NoPerm), s.exec(writer, "USERADD a b reader"))

	root := login(t, s, "root")
	assert.Equal(t, OK, s.exec(writer, "SET 1 1").Msg)
	assert.Equal(t, OK, s.exec(root, "FORMAT").Msg)
	assert.Contains(t, string(s.exec(reader, "GET 1").Msg), "variable not found")
}

func TestInfo(t *testing.T) {
	s := newServer(t)
	sess := login(t, s, "reader")

	assert.Equal(t,
		Msg("pages=2 active=0 receiving=-1 used=0/63 live=0 erase_count=1"),
		s.exec(sess, "INFO").Msg,
	)
}

func TestUserAdmin(t *testing.T) {
	s := newServer(t)
	root := login(t, s, "root")

	assert.Equal(t, OK, s.exec(root, "USERADD alice secret writer").Msg)
	assert.Equal(t, Err("User already exists"), s.exec(root, "USERADD alice x reader"))
	assert.Contains(t, string(s.exec(root, "USERADD bob x king").Msg), "invalid role")

	alice := &Session{}
	assert.Equal(t, OK, s.exec(alice, "AUTH alice secret").Msg)
	assert.Equal(t, OK, s.exec(alice, "SET 2 2").Msg)

	assert.Equal(t, Err("Cannot delete the current user"), s.exec(root, "USERDEL root"))
	assert.Equal(t, OK, s.exec(root, "USERDEL alice").Msg)
	assert.Equal(t, Err("invalid credentials"), s.exec(&Session{}, "AUTH alice secret"))
}

func TestUnknownAndExit(t *testing.T) {
	s := newServer(t)
	sess := &Session{}

	assert.Equal(t, Respond(""), s.exec(sess, "   "))
	assert.Equal(t, Err("Unknown command NOPE"), s.exec(sess, "NOPE"))
	assert.True(t, s.exec(sess, "exit").Close)
}

func TestListenServesConnections(t *testing.T) {
	s := newServer(t)

	done := make(chan error, 1)
	go func() { done <- s.Listen() }()

	conn, err := net.Dial("tcp", s.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	r := bufio.NewReader(conn)
	send := func(line string) string {
		_, err := conn.Write([]byte(line + "\n"))
		require.NoError(t, err)
		out, err := r.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimPrefix(strings.TrimSpace(out), Prompt)
	}

	assert.Equal(t, "OK", send("AUTH writer pw"))
	assert.Equal(t, "OK", send("SET 7 0x77"))
	assert.Equal(t, "0x0077", send("GET 7"))
	assert.Equal(t, "Bye", send("EXIT"))

	s.Shutdown()
	select {
	case err := <-done:
		assert.Nil(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
