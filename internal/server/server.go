package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lojhan/hashchain/internal/resp"
)

const (
	DefaultAddr            = "tcp://:6380"
	DefaultShutdownTimeout = 5 * time.Second
)

type CommandHandler func(args []resp.Value) resp.Value

// Server is a RESP front end driven by gnet event loops. Handlers may run on
// several loops at once when multicore is enabled.
type Server struct {
	gnet.BuiltinEventEngine

	addr            string
	multicore       bool
	shutdownTimeout time.Duration
	logger          *zap.Logger

	mu       sync.RWMutex
	handlers map[string]CommandHandler

	eng     gnet.Engine
	booted  chan struct{}
	clients atomic.Int64
}

type Option func(*Server)

func WithMulticore(multicore bool) Option {
	return func(s *Server) { s.multicore = multicore }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

func NewServer(addr string, opts ...Option) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		addr:            addr,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          zap.NewNop(),
		handlers:        make(map[string]CommandHandler),
		booted:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) RegisterCommand(name string, handler CommandHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToUpper(name)] = handler
}

func (s *Server) GetHandler(name string) CommandHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[strings.ToUpper(name)]
}

// Ready is closed once the listener is up.
func (s *Server) Ready() <-chan struct{} {
	return s.booted
}

func (s *Server) ClientCount() int64 {
	return s.clients.Load()
}

// Serve runs the event loops until ctx is cancelled or the engine fails.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- gnet.Run(s, s.addr,
			gnet.WithMulticore(s.multicore),
			gnet.WithLogger(s.logger.Sugar()),
		)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve on %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	select {
	case <-s.booted:
	case err := <-errCh:
		return err
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	err := multierr.Combine(s.eng.Stop(stopCtx), <-errCh)
	s.logger.Info("server stopped", zap.Error(err))
	return err
}

func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	close(s.booted)
	s.logger.Info("server listening",
		zap.String("addr", s.addr),
		zap.Bool("multicore", s.multicore))
	return gnet.None
}

func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	s.clients.Inc()
	s.logger.Debug("client connected", zap.Stringer("remote", c.RemoteAddr()))
	return nil, gnet.None
}

func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	s.clients.Dec()
	s.logger.Debug("client disconnected", zap.Stringer("remote", c.RemoteAddr()), zap.Error(err))
	return gnet.None
}

// OnTraffic answers every complete command in the inbound buffer and leaves a
// trailing partial frame for the next read.
func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	buf, err := c.Peek(-1)
	if err != nil {
		s.logger.Warn("failed to read inbound buffer", zap.Error(err))
		return gnet.Close
	}

	out := bytebufferpool.Get()
	defer bytebufferpool.Put(out)

	action := gnet.None
	consumed := 0
	for consumed < len(buf) {
		value, n, err := resp.Parse(buf[consumed:])
		if errors.Is(err, resp.ErrIncomplete) {
			break
		}
		if err != nil {
			s.logger.Warn("protocol error",
				zap.Stringer("remote", c.RemoteAddr()),
				zap.Error(err))
			out.B, _ = resp.AppendValue(out.B, resp.ErrorValue("ERR protocol error"))
			consumed = len(buf)
			action = gnet.Close
			break
		}
		consumed += n

		reply := s.dispatch(value)
		if out.B, err = resp.AppendValue(out.B, reply); err != nil {
			s.logger.Error("failed to encode reply", zap.Error(err))
			out.B, _ = resp.AppendValue(out.B, resp.ErrorValue("ERR internal error"))
		}
	}

	if _, err := c.Discard(consumed); err != nil {
		s.logger.Warn("failed to discard inbound bytes", zap.Error(err))
		return gnet.Close
	}
	if out.Len() > 0 {
		if _, err := c.Write(out.B); err != nil {
			s.logger.Warn("failed to write reply",
				zap.Stringer("remote", c.RemoteAddr()),
				zap.Error(err))
			return gnet.Close
		}
	}
	return action
}

func (s *Server) dispatch(value resp.Value) resp.Value {
	if value.Type != resp.Array {
		return resp.ErrorValue("ERR protocol error: expected array")
	}
	if len(value.Array) == 0 {
		return resp.ErrorValue("ERR empty command")
	}

	cmdValue := value.Array[0]
	if cmdValue.Type != resp.BulkString {
		return resp.ErrorValue("ERR protocol error: command must be bulk string")
	}

	cmdName := strings.ToUpper(cmdValue.Str)
	handler := s.GetHandler(cmdName)
	if handler == nil {
		return resp.ErrorValue(fmt.Sprintf("ERR unknown command '%s'", cmdName))
	}
	return handler(value.Array[1:])
}
