// internal/ws/server.go
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/haggle/engine"
	"github.com/jason-s-yu/haggle/service/internal/transcript"
)

// Message types exchanged with a remote counterpart.
const (
	TypeStart   = "start"   // client: configure the engine
	TypeOpening = "opening" // client: ask for the engine's opening proposal
	TypeOffer   = "offer"   // client: the counts the client offers the engine
	TypeReady   = "ready"   // server: engine created
	TypeCounter = "counter" // server: the counts the engine wants to keep
	TypeAccept  = "accept"  // server: the engine accepts the last offer
	TypeError   = "error"
)

// ClientMessage is any message a client sends. Strategy is applied over the
// server's strategy, so keys left out keep the server's values.
type ClientMessage struct {
	Type        string          `json:"type"`
	SecondMover bool            `json:"second_mover,omitempty"`
	Counts      []int           `json:"counts,omitempty"`
	Values      []float64       `json:"values,omitempty"`
	Rounds      int             `json:"rounds,omitempty"`
	Strategy    json.RawMessage `json:"strategy,omitempty"`
}

// ServerMessage is any message the server sends.
type ServerMessage struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Counts  []int  `json:"counts,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Server hosts one engine per WebSocket connection.
type Server struct {
	strategy engine.Strategy
	log      *log.Entry
	opts     *websocket.AcceptOptions
}

// NewServer returns a Server whose engines default to st unless a start
// message carries its own strategy.
func NewServer(st engine.Strategy, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Server{
		strategy: st,
		log:      logger,
		opts:     &websocket.AcceptOptions{InsecureSkipVerify: true},
	}
}

// Handler returns the HTTP handler that upgrades and serves a session.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, s.opts)
		if err != nil {
			s.log.Warnf("websocket accept: %v", err)
			return
		}
		defer c.CloseNow()

		sess := newSession(s.strategy, s.log)
		sess.log.Info("session opened")
		s.serve(r.Context(), c, sess)
		sess.log.Info("session closed")
	}
}

func (s *Server) serve(ctx context.Context, c *websocket.Conn, sess *session) {
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				sess.log.Debugf("read: %v", err)
			}
			return
		}

		reply, fatal := sess.handle(msg)
		if err := wsjson.Write(ctx, c, reply); err != nil {
			sess.log.Debugf("write: %v", err)
			return
		}
		switch {
		case fatal:
			c.Close(websocket.StatusPolicyViolation, reply.Error)
			return
		case reply.Type == TypeAccept:
			c.Close(websocket.StatusNormalClosure, "agreement reached")
			return
		}
	}
}

// session is the per-connection state. It is only touched by the
// connection's read loop.
type session struct {
	id       uuid.UUID
	strategy engine.Strategy
	eng      *engine.Engine
	log      *log.Entry
}

func newSession(st engine.Strategy, logger *log.Entry) *session {
	id := uuid.New()
	return &session{id: id, strategy: st, log: logger.WithField("session", id)}
}

// startStrategy overlays the keys present in raw onto the session default.
func (s *session) startStrategy(raw json.RawMessage) (engine.Strategy, error) {
	st := s.strategy
	if len(raw) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return engine.Strategy{}, fmt.Errorf("%w: strategy: %v", engine.ErrConfiguration, err)
	}
	return st, nil
}

// handle applies one client message. fatal reports a protocol violation
// after which the connection is closed.
func (s *session) handle(msg ClientMessage) (reply ServerMessage, fatal bool) {
	switch msg.Type {
	case TypeStart:
		if s.eng != nil {
			return errorReply("session already started"), true
		}
		st, err := s.startStrategy(msg.Strategy)
		if err != nil {
			return errorReply(err.Error()), false
		}
		sink := transcript.LogSink{Entry: s.log}
		eng, err := engine.NewWithStrategy(st, msg.SecondMover, msg.Counts, msg.Values, msg.Rounds, sink)
		if err != nil {
			// A bad configuration can be corrected with another start.
			return errorReply(err.Error()), false
		}
		s.eng = eng
		s.log.WithFields(log.Fields{"rounds": msg.Rounds, "second_mover": msg.SecondMover}).Info("engine ready")
		return ServerMessage{Type: TypeReady, Session: s.id.String()}, false

	case TypeOpening:
		if s.eng == nil {
			return errorReply("no engine: send start first"), true
		}
		p, err := s.eng.OpeningOffer()
		if err != nil {
			return errorReply(err.Error()), true
		}
		return ServerMessage{Type: TypeCounter, Counts: p}, false

	case TypeOffer:
		if s.eng == nil {
			return errorReply("no engine: send start first"), true
		}
		d, err := s.eng.Respond(engine.Proposal(msg.Counts))
		if err != nil {
			return errorReply(err.Error()), errors.Is(err, engine.ErrProtocol)
		}
		if d.IsAccept() {
			return ServerMessage{Type: TypeAccept}, false
		}
		return ServerMessage{Type: TypeCounter, Counts: d.Proposal}, false
	}
	return errorReply("unknown message type " + msg.Type), true
}

func errorReply(msg string) ServerMessage {
	return ServerMessage{Type: TypeError, Error: msg}
}
