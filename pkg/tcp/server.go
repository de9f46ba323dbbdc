package tcp

import (
	"errors"
	"net"
	"strconv"

	"riskgate/pkg/exception"
)

var (
	// ErrNilServer is returned when a nil server receiver is used.
	ErrNilServer = errors.New("tcp: nil server")
	// ErrAlreadyListening is returned when Listen is called twice.
	ErrAlreadyListening = errors.New("tcp: already listening")
	// ErrNotListening is returned when Accept is called before Listen.
	ErrNotListening = errors.New("tcp: not listening")
)

// Server listens for TCP connections on a local port.
type Server struct {
	port int
	ln   *net.TCPListener
}

// NewServer creates a server for the provided port.
func NewServer(port int) (*Server, error) {
	if port <= 0 || port > 65535 {
		return nil, exception.ErrInvalidPortTCP
	}
	return &Server{port: port}, nil
}

// Port returns the configured port.
func (s *Server) Port() int {
	if s == nil {
		return 0
	}
	return s.port
}

// Listen starts listening on the configured port.
func (s *Server) Listen() error {
	if s == nil {
		return ErrNilServer
	}
	if s.ln != nil {
		return ErrAlreadyListening
	}
	addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort("", strconv.Itoa(s.port)))
	if err != nil {
		return err
	}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Accept waits for the next incoming connection.
func (s *Server) Accept() (*net.TCPConn, error) {
	if s == nil {
		return nil, ErrNilServer
	}
	if s.ln == nil {
		return nil, ErrNotListening
	}
	return s.ln.AcceptTCP()
}

// Close stops the listener.
func (s *Server) Close() error {
	if s == nil {
		return ErrNilServer
	}
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.ln = nil
	return err
}
