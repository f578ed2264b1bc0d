package editorsim

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"unrealforge.ai/internal/protocol"
)

const (
	connTimeout = 30 * time.Second
	readChunk   = 4096
	maxCmdBytes = 1 << 20
)

// Server speaks the command socket protocol over TCP: each connection
// carries one JSON command in and one JSON document back. The wire has no
// framing, so reads accumulate until the buffer parses as complete JSON,
// mirroring what the real editor plugin does.
type Server struct {
	sim *Sim
	log *log.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func NewServer(sim *Sim, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stdout, "[editorsim] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Server{sim: sim, log: logger, conns: map[net.Conn]struct{}{}}
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.log.Printf("listening on %s", ln.Addr())
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled. Cancellation
// closes the listener and every open connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.track(conn)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.untrack(conn)
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	raw, err := readCommand(conn)
	if err != nil {
		s.log.Printf("read from %s: %v", conn.RemoteAddr(), err)
		return
	}

	var cmd protocol.Command
	var doc map[string]any
	if err := json.Unmarshal(raw, &cmd); err != nil {
		doc = errDoc("Invalid command document: " + err.Error())
	} else {
		doc = s.sim.Handle(cmd)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		b, _ = json.Marshal(errDoc("Internal encoding error"))
	}
	if _, err := conn.Write(b); err != nil {
		s.log.Printf("write to %s: %v", conn.RemoteAddr(), err)
	}
}

// readCommand accumulates chunks until the buffer is one complete JSON
// value. Clients keep the socket open while waiting for the reply, so EOF
// before the document completes is an error, not a terminator.
func readCommand(r io.Reader) ([]byte, error) {
	buf := make([]byte, 0, readChunk)
	chunk := make([]byte, readChunk)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if len(buf) > maxCmdBytes {
				return nil, errors.New("command exceeds size limit")
			}
			if json.Valid(buf) {
				return buf, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 && json.Valid(buf) {
				return buf, nil
			}
			return nil, err
		}
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
