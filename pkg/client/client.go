// Package client implements the sync client core: one websocket connection to
// the remote data source, local mirrors of its tables kept consistent by the
// inbound change-event stream, and fire-and-forget dispatch of reducer calls.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/Heavenston/headar/pkg/protocol"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	// URL of the sync endpoint, e.g. "ws://localhost:8181/v1/sync".
	URL string
	// Credentials persists the session credential; nil means a fresh
	// identity on every connect.
	Credentials CredentialStore

	// Lifecycle callbacks. All are optional and are invoked from the
	// client's read loop.
	OnConnect      func(c *Client, identity, token string)
	OnDisconnect   func(err error)
	OnConnectError func(err error)
	// OnReady fires exactly once, after the initial subscription snapshot
	// has fully landed in the mirrors.
	OnReady func()
}

// Client owns the single outbound link to the remote data source. All visible
// effect of any mutation comes back through the table mirrors; the client
// never applies anything optimistically.
type Client struct {
	cfg    Config
	conn   *websocket.Conn
	tables *Tables

	writeMu sync.Mutex

	mu       sync.RWMutex
	identity string
	userID   uint32
	hasUser  bool
	ready    bool

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the sync endpoint, replaying any persisted credential.
// On success the returned client is connected but not yet ready: readiness is
// signalled by OnReady once the initial snapshot has been applied.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	endpoint, err := buildURL(cfg)
	if err != nil {
		if cfg.OnConnectError != nil {
			cfg.OnConnectError(err)
		}
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if cfg.OnConnectError != nil {
			cfg.OnConnectError(err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.URL, err)
	}

	c := &Client{
		cfg:    cfg,
		conn:   conn,
		tables: NewTables(),
		done:   make(chan struct{}),
	}
	c.watchOwnIdentity()

	go c.readLoop()
	return c, nil
}

func buildURL(cfg Config) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid sync URL %q: %w", cfg.URL, err)
	}
	if cfg.Credentials != nil {
		token, err := cfg.Credentials.Load()
		if err != nil {
			return "", err
		}
		if token != "" {
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
		}
	}
	return u.String(), nil
}

// watchOwnIdentity registers the single session-binding watcher mapping the
// connection's transport identity to the signed-in user id. A self row with
// user id 0 means "connected but not signed into a profile".
func (c *Client) watchOwnIdentity() {
	apply := func(row protocol.UserIdentityRow) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if row.Identity != c.identity {
			return
		}
		c.userID = row.UserID
		c.hasUser = row.UserID != 0
	}
	c.tables.Identities.OnInsert(apply)
	c.tables.Identities.OnUpdate(func(_, newRow protocol.UserIdentityRow) {
		apply(newRow)
	})
}

func (c *Client) readLoop() {
	for {
		var msg protocol.ServerMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.Close()
			if c.cfg.OnDisconnect != nil {
				c.cfg.OnDisconnect(err)
			}
			return
		}

		switch msg.Type {
		case protocol.ServerIdentityToken:
			c.handleIdentityToken(msg)
		case protocol.ServerTransactionUpdate:
			for _, upd := range msg.Tables {
				c.tables.Apply(upd)
			}
		case protocol.ServerSubscriptionApplied:
			c.markReady()
		default:
			log.Warnf("unknown server message type %q", msg.Type)
		}
	}
}

func (c *Client) handleIdentityToken(msg protocol.ServerMessage) {
	c.mu.Lock()
	c.identity = msg.Identity
	c.mu.Unlock()

	if c.cfg.Credentials != nil && msg.Token != "" {
		if err := c.cfg.Credentials.Store(msg.Token); err != nil {
			log.Errorf("failed to persist session credential: %v", err)
		}
	}

	// Subscribe to every table as soon as the connection is established.
	if err := c.send(protocol.ClientMessage{Type: protocol.ClientSubscribe}); err != nil {
		log.Errorf("failed to request subscription: %v", err)
	}

	if c.cfg.OnConnect != nil {
		c.cfg.OnConnect(c, msg.Identity, msg.Token)
	}
}

func (c *Client) markReady() {
	c.mu.Lock()
	already := c.ready
	c.ready = true
	c.mu.Unlock()
	if already {
		return
	}
	if c.cfg.OnReady != nil {
		c.cfg.OnReady()
	}
}

// Tables exposes the local table mirrors.
func (c *Client) Tables() *Tables {
	return c.tables
}

// Reducers exposes the mutation gateway.
func (c *Client) Reducers() Reducers {
	return Reducers{caller: c}
}

// Ready reports whether the initial subscription snapshot has been fully
// applied. Before that, table reads mean "no data yet", not "empty".
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Identity returns the connection's transport identity.
func (c *Client) Identity() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// CurrentUserID returns the signed-in user id bound to this session, or
// false while not signed into a profile.
func (c *Client) CurrentUserID() (uint32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.hasUser
}

// Close tears the connection down. OnDisconnect still fires from the read
// loop when it observes the closed socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// call dispatches a named reducer, fire-and-forget. The returned error only
// reflects a transport write failure; whether the reducer was accepted is
// observable solely through subsequent change-events.
func (c *Client) call(reducer string, args any) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode %s args: %w", reducer, err)
	}
	return c.send(protocol.ClientMessage{
		Type:    protocol.ClientCallReducer,
		Reducer: reducer,
		Args:    payload,
	})
}

func (c *Client) send(msg protocol.ClientMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}
