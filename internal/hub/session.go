package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/label"
	"github.com/Heavenston/headar/pkg/protocol"
	"github.com/Heavenston/headar/pkg/user"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const outgoingBufferSize = 256

// session is one connected client. Outgoing messages go through a buffered
// channel drained by writeLoop so the broadcast path never blocks on a slow
// socket.
type session struct {
	hub      *Hub
	conn     *websocket.Conn
	identity string

	outgoing chan protocol.ServerMessage

	// subscribed is guarded by hub.mu.
	subscribed bool

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(h *Hub, conn *websocket.Conn, identity string) *session {
	return &session{
		hub:      h,
		conn:     conn,
		identity: identity,
		outgoing: make(chan protocol.ServerMessage, outgoingBufferSize),
		done:     make(chan struct{}),
	}
}

// enqueue queues a message for delivery. A session that cannot keep up is
// closed rather than allowed to stall every other client.
func (s *session) enqueue(msg protocol.ServerMessage) {
	select {
	case s.outgoing <- msg:
	case <-s.done:
	default:
		log.Warnf("session %s cannot keep up, dropping it", s.identity)
		s.close()
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *session) writeLoop() {
	for {
		select {
		case msg := <-s.outgoing:
			if err := s.conn.WriteJSON(msg); err != nil {
				log.Debugf("session %s write failed: %v", s.identity, err)
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *session) readLoop() {
	defer s.close()
	for {
		var msg protocol.ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			log.Debugf("session %s closed: %v", s.identity, err)
			return
		}

		switch msg.Type {
		case protocol.ClientSubscribe:
			if err := s.hub.subscribe(s); err != nil {
				log.Errorf("subscription for %s failed: %v", s.identity, err)
				return
			}
		case protocol.ClientCallReducer:
			s.dispatch(msg)
		default:
			log.Warnf("session %s sent unknown message type %q", s.identity, msg.Type)
		}
	}
}

// dispatch invokes the named reducer. Failures are logged and swallowed: the
// protocol has no feedback channel, a rejected mutation simply never produces
// change-events.
func (s *session) dispatch(msg protocol.ClientMessage) {
	ctx := user.WithIdentity(context.Background(), s.identity)

	err := func() error {
		switch msg.Reducer {
		case protocol.ReducerCreateUser:
			var args protocol.CreateUserArgs
			if err := json.Unmarshal(msg.Args, &args); err != nil {
				return err
			}
			_, err := s.hub.cfg.Users.CreateUser(ctx, args.Username)
			return err

		case protocol.ReducerDeleteUser:
			var args protocol.DeleteUserArgs
			if err := json.Unmarshal(msg.Args, &args); err != nil {
				return err
			}
			return s.hub.cfg.Users.DeleteUser(ctx, args.UserID)

		case protocol.ReducerConnectToClient:
			var args protocol.ConnectToClientArgs
			if err := json.Unmarshal(msg.Args, &args); err != nil {
				return err
			}
			return s.hub.cfg.Users.ConnectToClient(ctx, args.UserID)

		case protocol.ReducerDisconnectFromClient:
			return s.hub.cfg.Users.DisconnectFromClient(ctx)

		case protocol.ReducerRename:
			var args protocol.RenameArgs
			if err := json.Unmarshal(msg.Args, &args); err != nil {
				return err
			}
			return s.hub.cfg.Users.Rename(ctx, args.NewUsername)

		case protocol.ReducerCreateAvailabilityRange:
			var args protocol.CreateAvailabilityRangeArgs
			if err := json.Unmarshal(msg.Args, &args); err != nil {
				return err
			}
			return s.hub.cfg.Ranges.CreateRange(ctx, args.RangeStart, args.RangeEnd, availability.Level(args.AvailabilityLevel))

		case protocol.ReducerDeleteAvailabilityRange:
			var args protocol.DeleteAvailabilityRangeArgs
			if err := json.Unmarshal(msg.Args, &args); err != nil {
				return err
			}
			return s.hub.cfg.Ranges.DeleteRange(ctx, args.ID)

		case protocol.ReducerCreateRangeLabel:
			var args protocol.CreateRangeLabelArgs
			if err := json.Unmarshal(msg.Args, &args); err != nil {
				return err
			}
			color := label.Color{R: args.ColorR, G: args.ColorG, B: args.ColorB}
			return s.hub.cfg.Labels.CreateLabel(ctx, args.Title, color, args.RangeStart, args.RangeEnd)

		case protocol.ReducerDeleteRangeLabel:
			var args protocol.DeleteRangeLabelArgs
			if err := json.Unmarshal(msg.Args, &args); err != nil {
				return err
			}
			return s.hub.cfg.Labels.DeleteLabel(ctx, args.ID)

		default:
			log.Warnf("session %s called unknown reducer %q", s.identity, msg.Reducer)
			return nil
		}
	}()
	if err != nil {
		log.Warnf("reducer %s rejected for %s: %v", msg.Reducer, s.identity, err)
	}
}
