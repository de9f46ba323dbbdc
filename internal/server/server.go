package server

import (
	"context"
	"sync"

	"github.com/yanun0323/logs"

	"riskgate/internal/engine"
	"riskgate/internal/obs"
	"riskgate/pkg/exception"
	"riskgate/pkg/tcp"
)

// Server accepts client connections and feeds decoded messages into the
// engine. Each connection parses its own frames in arrival order; a shared
// semaphore bounds how many connections work at once.
type Server struct {
	cfg     Config
	eng     *engine.Engine
	metrics *obs.Metrics

	ln  *tcp.Server
	sem chan struct{}

	mu     sync.Mutex
	conns  map[*Conn]struct{}
	closed bool

	acceptWG sync.WaitGroup
	connWG   sync.WaitGroup
}

// New creates a server. metrics may be nil.
func New(cfg Config, eng *engine.Engine, metrics *obs.Metrics) (*Server, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eng == nil {
		return nil, exception.ErrServerNilEngine
	}
	ln, err := tcp.NewServer(cfg.Port)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:     cfg,
		eng:     eng,
		metrics: metrics,
		ln:      ln,
		sem:     make(chan struct{}, cfg.Workers),
		conns:   make(map[*Conn]struct{}),
	}, nil
}

// Start listens and runs the accept loop in a new goroutine.
func (s *Server) Start(ctx context.Context) error {
	if err := s.ln.Listen(); err != nil {
		return err
	}
	logs.Infof("listen %d", s.cfg.Port)

	s.acceptWG.Add(1)
	go func() {
		defer s.acceptWG.Done()
		s.acceptLoop(ctx)
	}()
	return nil
}

// Stop closes the listener, tears down every connection and waits for all
// of them to drain.
func (s *Server) Stop() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if err := s.ln.Close(); err != nil {
		logs.Errorf("close listener failed: %+v", err)
	}
	s.acceptWG.Wait()

	for _, c := range conns {
		c.shutdown()
	}
	s.connWG.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || ctx.Err() != nil {
				return
			}
			logs.Errorf("accept failed: %+v", err)
			continue
		}

		c := newConn(s, conn)
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.metrics.AddConn(1)
		s.connWG.Add(1)
		go func() {
			defer s.connWG.Done()
			c.run(ctx)
		}()
	}
}

func (s *Server) forget(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.metrics.AddConn(-1)
}

// acquire takes a worker slot, waiting while the pool is saturated.
func (s *Server) acquire(ctx context.Context) bool {
	select {
	case s.sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Server) release() {
	<-s.sem
}
