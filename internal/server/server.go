package server

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"go.eeprom/internal/auth"
	"go.eeprom/internal/config"
	"go.eeprom/internal/engine"
	"go.eeprom/internal/logger"
)

type Server struct {
	cfg  *config.Config
	auth *auth.Authenticator
	db   *engine.Database
	log  *logger.Logger

	ln       net.Listener
	shutdown chan struct{}
	once     sync.Once
	ready    chan struct{}
}

func New(cfg *config.Config, db *engine.Database, users auth.Store, log *logger.Logger) *Server {
	return &Server{
		cfg:      cfg,
		auth:     auth.NewAuthenticator(users),
		db:       db,
		log:      log,
		shutdown: make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

func (s *Server) listen() (net.Listener, error) {
	if !s.cfg.EnableTLS {
		l, err := net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("failed to start TCP listener: %w", err)
		}
		return l, nil
	}

	cert, err := tls.LoadX509KeyPair(s.cfg.TLSCert, s.cfg.TLSKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	l, err := tls.Listen("tcp", s.cfg.Addr, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start TLS listener: %w", err)
	}
	s.log.Infof("TLS enabled")
	return l, nil
}

// Listen serves connections until Shutdown is called or the process receives
// SIGINT or SIGTERM.
func (s *Server) Listen() error {
	l, err := s.listen()
	if err != nil {
		return err
	}
	s.ln = l
	close(s.ready)
	s.log.Infof("listening on %s", l.Addr())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			s.log.Infof("signal received, shutting down")
			s.Shutdown()
		case <-s.shutdown:
		}
	}()

	for {
		conn, err := l.Accept()

		select {
		case <-s.shutdown:
			if conn != nil {
				conn.Close()
			}
			return nil
		default:
		}

		if err != nil {
			s.log.Warnf("accept: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

// Addr blocks until the listener is up and returns its address.
func (s *Server) Addr() net.Addr {
	<-s.ready
	return s.ln.Addr()
}

func (s *Server) Shutdown() {
	s.once.Do(func() {
		close(s.shutdown)
		if s.ln != nil {
			s.ln.Close()
		}
	})
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sess := &Session{}
	reader := bufio.NewScanner(conn)
	s.log.Debugf("connection from %s", conn.RemoteAddr())

	conn.Write([]byte(Prompt))

	for reader.Scan() {
		select {
		case <-s.shutdown:
			conn.Write([]byte("\nServer shutting down...\n"))
			return
		default:
		}

		resp := s.exec(sess, reader.Text())

		conn.Write([]byte(string(resp.Msg) + "\n"))

		if resp.Close {
			return
		}

		conn.Write([]byte(Prompt))
	}
}

func (s *Server) exec(sess *Session, line string) Response {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Respond("")
	}

	switch strings.ToUpper(parts[0]) {
	case "AUTH":
		return s.authCommand(sess, parts)
	case "GET":
		return s.getCommand(sess, parts)
	case "SET":
		return s.setCommand(sess, parts)
	case "DEL":
		return s.delCommand(sess, parts)
	case "GETA":
		return s.getArrayCommand(sess, parts)
	case "SETA":
		return s.setArrayCommand(sess, parts)
	case "DELA":
		return s.delArrayCommand(sess, parts)
	case "COUNT":
		return s.countCommand(sess, parts)
	case "INFO":
		return s.infoCommand(sess, parts)
	case "FORMAT":
		return s.formatCommand(sess, parts)
	case "USERADD":
		return s.createUserCommand(sess, parts)
	case "USERDEL":
		return s.delUserCommand(sess, parts)
	case "EXIT":
		return Response{Msg: "Bye", Close: true}
	default:
		return Err(Msg("Unknown command " + parts[0]))
	}
}
