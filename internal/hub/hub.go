// Package hub serves the subscription protocol: it upgrades clients to a
// websocket, replays full table snapshots on subscribe, and broadcasts every
// change-event published on the event bus to all subscribed sessions.
package hub

import (
	"context"
	"net/http"
	"sync"

	"github.com/Heavenston/headar/internal/auth"
	"github.com/Heavenston/headar/internal/event_bus"
	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/label"
	"github.com/Heavenston/headar/pkg/protocol"
	"github.com/Heavenston/headar/pkg/user"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Issuer *auth.Issuer
	Bus    *event_bus.Bus

	Users  user.Service
	Ranges availability.Service
	Labels label.Service

	// Repositories back the snapshot sent on subscribe.
	UserRepo  user.Repo
	RangeRepo availability.Repository
	LabelRepo label.Repository
}

type Hub struct {
	cfg      Config
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
}

func New(cfg Config) *Hub {
	h := &Hub{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[*session]struct{}),
	}
	cfg.Bus.Subscribe(h.broadcast)
	return h
}

// ServeHTTP upgrades the request to a websocket sync session. The session
// credential is taken from the "token" query parameter; a missing or invalid
// credential results in a freshly issued identity.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, token := h.resolveIdentity(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	s := newSession(h, conn, identity)
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()

	ctx := user.WithIdentity(context.Background(), identity)
	if err := h.cfg.Users.HandleClientConnected(ctx); err != nil {
		log.Errorf("client connect bookkeeping failed: %v", err)
	}

	s.enqueue(protocol.ServerMessage{
		Type:     protocol.ServerIdentityToken,
		Identity: identity,
		Token:    token,
	})

	go s.writeLoop()
	s.readLoop()

	h.remove(s)
	if err := h.cfg.Users.HandleClientDisconnected(ctx); err != nil {
		log.Errorf("client disconnect bookkeeping failed: %v", err)
	}
}

func (h *Hub) resolveIdentity(r *http.Request) (identity, token string) {
	token = r.URL.Query().Get("token")
	if token != "" {
		if identity, err := h.cfg.Issuer.Verify(token); err == nil {
			return identity, token
		}
		log.Debug("presented credential is invalid, issuing a new identity")
	}

	identity = uuid.NewString()
	token, err := h.cfg.Issuer.Issue(identity)
	if err != nil {
		log.Errorf("failed to issue identity token: %v", err)
	}
	return identity, token
}

func (h *Hub) remove(s *session) {
	h.mu.Lock()
	delete(h.sessions, s)
	h.mu.Unlock()
	s.close()
}

// broadcast fans one change-event out to every subscribed session. It runs
// synchronously on the mutation path, so events are enqueued per session in
// mutation order.
func (h *Hub) broadcast(e event_bus.TableChanged) {
	row, err := wireRow(e.Row)
	if err != nil {
		log.Errorf("cannot encode change-event for table %s: %v", e.Table, err)
		return
	}

	update := protocol.TableUpdate{Table: e.Table}
	switch e.Op {
	case event_bus.OpInsert:
		update.Inserts = append(update.Inserts, row)
	case event_bus.OpUpdate:
		old := row
		if e.Old != nil {
			if encoded, err := wireRow(e.Old); err == nil {
				old = encoded
			}
		}
		update.Updates = append(update.Updates, protocol.RowUpdate{Old: old, New: row})
	case event_bus.OpDelete:
		update.Deletes = append(update.Deletes, row)
	}

	msg := protocol.ServerMessage{
		Type:   protocol.ServerTransactionUpdate,
		Tables: []protocol.TableUpdate{update},
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.sessions {
		if s.subscribed {
			s.enqueue(msg)
		}
	}
}

// subscribe sends the full snapshot of every table followed by the applied
// marker. It holds the hub lock across the snapshot read and send so that no
// change-event can slip between them: anything committed before the lock is
// in the snapshot, anything after is broadcast after it.
func (h *Hub) subscribe(s *session) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := context.Background()

	users, err := h.cfg.UserRepo.GetAllUsers(ctx)
	if err != nil {
		return err
	}
	idents, err := h.cfg.UserRepo.GetAllIdentities(ctx)
	if err != nil {
		return err
	}
	ranges, err := h.cfg.RangeRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	labels, err := h.cfg.LabelRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	tables := []protocol.TableUpdate{
		{Table: protocol.TableUser},
		{Table: protocol.TableUserIdentity},
		{Table: protocol.TableRangeAvailability},
		{Table: protocol.TableRangeLabels},
	}
	for _, u := range users {
		if row, err := wireRow(u); err == nil {
			tables[0].Inserts = append(tables[0].Inserts, row)
		}
	}
	for _, ident := range idents {
		if row, err := wireRow(ident); err == nil {
			tables[1].Inserts = append(tables[1].Inserts, row)
		}
	}
	for _, rng := range ranges {
		if row, err := wireRow(rng); err == nil {
			tables[2].Inserts = append(tables[2].Inserts, row)
		}
	}
	for _, l := range labels {
		if row, err := wireRow(l); err == nil {
			tables[3].Inserts = append(tables[3].Inserts, row)
		}
	}

	s.enqueue(protocol.ServerMessage{
		Type:   protocol.ServerTransactionUpdate,
		Tables: tables,
	})
	s.enqueue(protocol.ServerMessage{Type: protocol.ServerSubscriptionApplied})
	s.subscribed = true
	return nil
}
