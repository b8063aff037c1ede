package live

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/attrsync/pkg/host/patchhost"
	"github.com/vango-dev/attrsync/pkg/protocol"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

// maxErrorMessage bounds the text carried by an error frame.
const maxErrorMessage = 1024

// Session is one client connection. It owns a patch host and one reconciler
// per client element.
type Session struct {
	id      string
	logger  *slog.Logger
	metrics *Metrics
	opts    []reconcile.Option

	mu          sync.Mutex
	host        *patchhost.Host
	reconcilers map[string]*reconcile.Reconciler

	conn         *websocket.Conn
	writeTimeout time.Duration
	closed       atomic.Bool

	desiredCount atomic.Uint64
	reportCount  atomic.Uint64
	patchCount   atomic.Uint64
}

func newSession(id string, logger *slog.Logger, metrics *Metrics, opts ...reconcile.Option) *Session {
	return &Session{
		id:          id,
		logger:      logger,
		metrics:     metrics,
		opts:        append([]reconcile.Option{reconcile.WithLogger(logger)}, opts...),
		host:        patchhost.New(),
		reconcilers: make(map[string]*reconcile.Reconciler),
	}
}

func (s *Session) attach(conn *websocket.Conn, writeTimeout time.Duration) {
	s.conn = conn
	s.writeTimeout = writeTimeout
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Elements returns the number of client elements the session tracks.
func (s *Session) Elements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reconcilers)
}

// serve reads frames until the connection fails or a fatal error occurs.
func (s *Session) serve(ctx context.Context) {
	s.metrics.sessionOpened()
	closeCode := websocket.CloseNormalClosure
	defer func() { s.close(closeCode) }()

	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.metrics.websocketError("read")
				s.logger.Warn("read error", "error", err)
			}
			return
		}

		var reply []byte
		var fatal error
		switch mt {
		case websocket.TextMessage:
			reply, fatal = s.HandleDesired(ctx, data)
		case websocket.BinaryMessage:
			reply, fatal = s.HandleReports(data)
		default:
			continue
		}

		if reply != nil {
			if err := s.write(reply); err != nil {
				s.metrics.websocketError("write")
				s.logger.Error("write error", "error", err)
				return
			}
		}
		if fatal != nil {
			s.logger.Error("closing session", "error", fatal)
			closeCode = websocket.ClosePolicyViolation
			return
		}
	}
}

func (s *Session) write(data []byte) error {
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// HandleDesired applies one desired-state message and returns the encoded
// frame to send back. A non-nil error means the session must close after
// the reply is sent.
func (s *Session) HandleDesired(ctx context.Context, data []byte) ([]byte, error) {
	s.desiredCount.Add(1)
	s.metrics.message("desired")

	msg, err := ParseDesired(data)
	if err != nil {
		s.logger.Warn("invalid desired-state message", "error", err)
		return s.errorFrame(protocol.NewError(protocol.ErrInvalidMessage, err.Error())), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Remove {
		if r, ok := s.reconcilers[msg.HID]; ok {
			r.Discard()
			delete(s.reconcilers, msg.HID)
		}
		s.host.Forget(msg.HID)
		return s.patchFrame()
	}

	el, created := s.host.Element(msg.HID, msg.Tag)
	r, ok := s.reconcilers[msg.HID]
	if created || !ok {
		if ok {
			r.Discard()
		}
		r = reconcile.New(el, s.host, s.opts...)
		s.reconcilers[msg.HID] = r
	}

	if err := r.UpdateContext(ctx, msg.Attrs); err != nil {
		switch {
		case reconcile.IsInvalidInputError(err):
			s.logger.Warn("desired attributes rejected", "hid", msg.HID, "error", err)
			return s.errorFrame(protocol.NewError(protocol.ErrInvalidInput, err.Error())), nil
		case reconcile.IsConfigurationError(err):
			return s.errorFrame(protocol.NewFatalError(protocol.ErrConfiguration, err.Error())), err
		default:
			return s.errorFrame(protocol.NewFatalError(protocol.ErrServerError, err.Error())), err
		}
	}
	return s.patchFrame()
}

// HandleReports applies a binary reports frame to the client mirror. It
// returns an error frame for invalid input and nil otherwise. Reports never
// close the session.
func (s *Session) HandleReports(data []byte) ([]byte, error) {
	s.metrics.message("reports")
	frame, err := protocol.DecodeFrame(data)
	if err != nil {
		s.logger.Warn("invalid frame", "error", err)
		return s.errorFrame(protocol.NewError(protocol.ErrInvalidFrame, err.Error())), nil
	}
	if frame.Type != protocol.FrameReports {
		s.logger.Warn("unexpected frame type", "type", frame.Type)
		return s.errorFrame(protocol.NewError(protocol.ErrInvalidFrame, "unexpected frame type "+frame.Type.String())), nil
	}
	reports, err := protocol.DecodeReports(frame.Payload)
	if err != nil {
		s.logger.Warn("invalid reports", "error", err)
		return s.errorFrame(protocol.NewError(protocol.ErrInvalidFrame, err.Error())), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, rep := range reports {
		s.reportCount.Add(1)
		if err := s.host.Apply(rep); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		s.logger.Warn("report rejected", "error", firstErr)
		return s.errorFrame(protocol.NewError(protocol.ErrUnknownElement, firstErr.Error())), nil
	}
	return nil, nil
}

// patchFrame flushes the host into an encoded patches frame. Callers hold mu.
func (s *Session) patchFrame() ([]byte, error) {
	pf := s.host.Flush()
	s.patchCount.Add(uint64(len(pf.Patches)))
	s.metrics.patches(len(pf.Patches))

	frame := protocol.NewFrame(protocol.FramePatches, protocol.EncodePatches(pf))
	frame.Flags = protocol.FlagFinal
	data, err := frame.Encode()
	if err != nil {
		// The client mirror has diverged from what the reconcilers applied.
		return s.errorFrame(protocol.NewFatalError(protocol.ErrServerError, err.Error())), err
	}
	return data, nil
}

func (s *Session) errorFrame(em *protocol.ErrorMessage) []byte {
	s.metrics.protocolError(em.Code)
	if len(em.Message) > maxErrorMessage {
		em.Message = em.Message[:maxErrorMessage]
	}
	data, err := protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em)).Encode()
	if err != nil {
		s.logger.Error("encode error frame", "error", err)
		return nil
	}
	return data
}

// Close closes the session's connection.
func (s *Session) Close() {
	s.close(websocket.CloseGoingAway)
}

func (s *Session) close(code int) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	for hid, r := range s.reconcilers {
		r.Discard()
		delete(s.reconcilers, hid)
	}
	s.mu.Unlock()

	if s.conn != nil {
		s.metrics.sessionClosed()
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""),
			time.Now().Add(time.Second),
		)
		s.conn.Close()
	}

	s.logger.Info("session closed",
		"desired", s.desiredCount.Load(),
		"reports", s.reportCount.Load(),
		"patches", s.patchCount.Load())
}
