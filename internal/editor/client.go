// Package editor implements the TCP client for the Unreal editor's command
// socket. The wire has no length framing: each connection carries exactly one
// JSON command out and one JSON document back, so completeness is detected by
// accumulating reads until the buffer parses as JSON.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"unrealforge.ai/internal/protocol"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 55557

	defaultTimeout          = 30 * time.Second
	defaultChunkSize        = 4096
	defaultSocketBufferSize = 64 * 1024
	defaultMaxResponse      = 16 << 20
)

// Transport faults, wrapped into the error responses Send returns and
// classifiable by taps via errors.Is.
var (
	ErrTimeout = errors.New("editor: timed out waiting for a complete response")
	ErrClosed  = errors.New("editor: connection closed before receiving data")
	ErrTooBig  = errors.New("editor: response exceeds configured size limit")
)

type Config struct {
	Host string
	Port int

	// DialTimeout bounds the TCP connect. IOTimeout bounds the write plus
	// the whole read loop; a context deadline shortens it further.
	DialTimeout time.Duration
	IOTimeout   time.Duration

	// ChunkSize is the per-read buffer. SocketBufferSize is applied to the
	// kernel send and receive buffers. MaxResponseBytes caps accumulation
	// so a misbehaving peer cannot grow the buffer without bound.
	ChunkSize        int
	SocketBufferSize int
	MaxResponseBytes int
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultTimeout
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = defaultTimeout
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.SocketBufferSize <= 0 {
		c.SocketBufferSize = defaultSocketBufferSize
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponse
	}
	return c
}

// Exchange is one completed round trip as seen by a Tap.
type Exchange struct {
	Command  protocol.Command
	Response protocol.Response
	Err      error // underlying transport fault, nil on clean exchanges
	Duration time.Duration
}

// Tap observes every exchange (wire transcript, history). Implementations
// must not block.
type Tap interface {
	RecordExchange(Exchange)
}

// Client issues commands to the editor. Each command opens a fresh
// connection; no socket is held between calls, so a Client is safe for
// concurrent use.
type Client struct {
	cfg Config
	log *log.Logger
	tap Tap
}

func NewClient(cfg Config, logger *log.Logger, tap Tap) *Client {
	if logger == nil {
		logger = log.New(os.Stdout, "[editor] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Client{cfg: cfg.withDefaults(), log: logger, tap: tap}
}

// Addr returns the host:port the client dials.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

// Send issues one command on a fresh connection and returns the normalized
// response. Transport faults never escape as Go errors; they come back as
// {"status":"error",...} documents so callers handle exactly one shape.
func (c *Client) Send(ctx context.Context, typ string, params map[string]any) protocol.Response {
	cmd := protocol.NewCommand(typ, params)
	start := time.Now()

	raw, err := c.roundTrip(ctx, cmd)
	var resp protocol.Response
	if err == nil {
		resp, err = protocol.DecodeResponse(raw)
		if err != nil {
			err = fmt.Errorf("decode response: %w", err)
		}
	}
	if err != nil {
		c.log.Printf("command %s failed: %v", cmd.Type, err)
		resp = protocol.ErrorResponse(err.Error())
	} else {
		resp = protocol.Normalize(resp)
	}

	if c.tap != nil {
		c.tap.RecordExchange(Exchange{
			Command:  cmd,
			Response: resp,
			Err:      err,
			Duration: time.Since(start),
		})
	}
	return resp
}

func (c *Client) roundTrip(ctx context.Context, cmd protocol.Command) ([]byte, error) {
	payload, err := cmd.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}

	d := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.Addr())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", c.Addr(), err)
	}
	defer conn.Close()

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetKeepAlive(true)
		_ = tc.SetReadBuffer(c.cfg.SocketBufferSize)
		_ = tc.SetWriteBuffer(c.cfg.SocketBufferSize)
	}

	deadline := time.Now().Add(c.cfg.IOTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("send %s: %w", cmd.Type, err)
	}
	return readJSONDocument(conn, c.cfg.ChunkSize, c.cfg.MaxResponseBytes)
}

// readJSONDocument reads fixed-size chunks until the accumulated buffer is
// one syntactically complete JSON value. A failed validity check only means
// the document is still arriving. A timeout with an already-complete buffer
// counts as a late success; a close before any byte arrived is ErrClosed.
func readJSONDocument(r io.Reader, chunkSize, maxBytes int) ([]byte, error) {
	buf := make([]byte, 0, chunkSize)
	chunk := make([]byte, chunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if len(buf) > maxBytes {
				return nil, fmt.Errorf("%w: %d bytes buffered", ErrTooBig, len(buf))
			}
			if json.Valid(buf) {
				return buf, nil
			}
		}
		if err == nil {
			continue
		}
		var nerr net.Error
		switch {
		case errors.As(err, &nerr) && nerr.Timeout():
			if len(buf) > 0 && json.Valid(buf) {
				return buf, nil
			}
			return nil, fmt.Errorf("%w (%d bytes buffered)", ErrTimeout, len(buf))
		case errors.Is(err, io.EOF):
			if len(buf) == 0 {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("connection closed with incomplete response (%d bytes)", len(buf))
		default:
			return nil, fmt.Errorf("read: %w", err)
		}
	}
}
