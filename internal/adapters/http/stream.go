package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/NaimTheDev/devvit-trip-spin/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxCommandSize = 4096
)

// Stream upgrades to a websocket that pushes the session view after every
// state change and accepts game commands from the client.
func (h *Handler) Stream(c echo.Context) error {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.WarnContext(c.Request().Context(), "websocket upgrade failed", "session_id", sess.ID, "error", err)
		return nil
	}

	s := &stream{h: h, sess: sess, conn: conn, logger: h.logger.With("session_id", sess.ID)}
	s.run()
	return nil
}

type stream struct {
	h      *Handler
	sess   *game.Session
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	actions sync.WaitGroup
}

func (s *stream) run() {
	ctx, cancel := context.WithCancel(context.Background())

	updates := make(chan struct{}, 1)
	unsubscribe := s.sess.Coordinator.Subscribe(func(curr, prev game.Snapshot) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, updates)
	}()

	s.logger.Info("stream opened")
	s.readLoop(ctx)

	unsubscribe()
	cancel()
	s.actions.Wait()
	<-writerDone

	s.writeMu.Lock()
	s.conn.Close()
	s.writeMu.Unlock()
	s.logger.Info("stream closed")
}

func (s *stream) writeLoop(ctx context.Context, updates <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := s.sendView(); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := s.sendView(); err != nil {
				return
			}
		case <-ticker.C:
			// Keeps the session alive in the store while the client is connected.
			if _, err := s.h.sessions.Get(s.sess.ID); err != nil {
				s.sendError(err)
				s.closeConn()
				return
			}
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *stream) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxCommandSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd StreamCommand
		if err := s.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("stream read failed", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handle(ctx, cmd)
	}
}

func (s *stream) handle(ctx context.Context, cmd StreamCommand) {
	coord := s.sess.Coordinator
	switch cmd.Type {
	case "ping":
		s.write(StreamMessage{Type: "pong"})
	case "spin":
		if !coord.StartSpin(ctx) {
			s.write(StreamMessage{Type: "rejected", Payload: map[string]string{"action": cmd.Type}})
		}
	case "reset":
		coord.ResetToIdle()
	case "itinerary":
		s.async(func() {
			it, err := coord.GetItinerary(ctx)
			if err != nil {
				s.sendError(err)
				return
			}
			s.write(StreamMessage{Type: "itinerary", Payload: it})
		})
	case "share":
		if messageTooLong(cmd.PersonalMessage) {
			s.write(StreamMessage{Type: "error", Payload: ErrorResponse{Error: "personalMessage must be at most 500 characters"}})
			return
		}
		s.async(func() {
			res, err := coord.ShareTrip(ctx, cmd.PersonalMessage)
			if err != nil {
				s.sendError(err)
				return
			}
			s.write(StreamMessage{Type: "shared", Payload: res})
		})
	default:
		s.write(StreamMessage{Type: "error", Payload: ErrorResponse{Error: "unknown message type " + cmd.Type}})
	}
}

func (s *stream) async(fn func()) {
	s.actions.Add(1)
	go func() {
		defer s.actions.Done()
		fn()
	}()
}

func (s *stream) sendView() error {
	return s.write(StreamMessage{Type: "view", Payload: s.h.page(s.sess)})
}

func (s *stream) sendError(err error) {
	status, msg := classifyError(err)
	if status >= 500 {
		s.logger.Error("stream action failed", "error", err)
	}
	s.write(StreamMessage{Type: "error", Payload: ErrorResponse{Error: msg}})
}

func (s *stream) write(msg StreamMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

func (s *stream) closeConn() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
		time.Now().Add(writeWait))
	s.conn.Close()
}
