package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Heavenston/headar/internal/auth"
	"github.com/Heavenston/headar/internal/event_bus"
	"github.com/Heavenston/headar/internal/hub"
	"github.com/Heavenston/headar/internal/utils"
	"github.com/Heavenston/headar/pkg/aggregate"
	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/label"
	"github.com/Heavenston/headar/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer runs the full sync stack on stub repositories.
type testServer struct {
	srv *httptest.Server
	url string

	userRepo  *user.StubUserRepo
	rangeRepo *availability.RepositoryStub
	labelRepo *label.RepositoryStub
}

func newTestServer(t *testing.T) *testServer {
	bus := event_bus.NewBus()
	userRepo := user.NewStubUserRepo()
	rangeRepo := availability.NewRepositoryStub()
	labelRepo := label.NewRepositoryStub()

	users := user.NewService(userRepo, bus)
	ranges := availability.NewService(rangeRepo, bus, users)
	labels := label.NewService(labelRepo, bus, users)
	users.SetCascades(ranges, labels)

	h := hub.New(hub.Config{
		Issuer:    auth.NewIssuer([]byte("test-signing-key"), utils.SystemClock{}),
		Bus:       bus,
		Users:     users,
		Ranges:    ranges,
		Labels:    labels,
		UserRepo:  userRepo,
		RangeRepo: rangeRepo,
		LabelRepo: labelRepo,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &testServer{
		srv:       srv,
		url:       "ws" + strings.TrimPrefix(srv.URL, "http"),
		userRepo:  userRepo,
		rangeRepo: rangeRepo,
		labelRepo: labelRepo,
	}
}

func dialTest(t *testing.T, server *testServer, store CredentialStore) *Client {
	c, err := Dial(context.Background(), Config{URL: server.url, Credentials: store})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func waitReady(t *testing.T, c *Client) {
	require.Eventually(t, c.Ready, 2*time.Second, 10*time.Millisecond,
		"client never received the subscription applied marker")
}

// signIn creates a profile through the reducer path and binds the session
// to it, waiting for the binding to come back through the mirrors.
func signIn(t *testing.T, c *Client, username string) uint32 {
	require.NoError(t, c.Reducers().CreateUser(username))

	var userID uint32
	require.Eventually(t, func() bool {
		for _, u := range c.Tables().Users.Snapshot() {
			if u.Username == username {
				userID = u.ID
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Reducers().ConnectToClient(userID))
	require.Eventually(t, func() bool {
		id, ok := c.CurrentUserID()
		return ok && id == userID
	}, 2*time.Second, 10*time.Millisecond)
	return userID
}

func TestClient_Connect(t *testing.T) {
	t.Run("should become ready after the initial snapshot", func(t *testing.T) {
		server := newTestServer(t)
		ready := make(chan struct{})

		// when
		c, err := Dial(context.Background(), Config{
			URL:     server.url,
			OnReady: func() { close(ready) },
		})
		require.NoError(t, err)
		t.Cleanup(c.Close)

		// then
		select {
		case <-ready:
		case <-time.After(2 * time.Second):
			t.Fatal("OnReady never fired")
		}
		assert.True(t, c.Ready())
		assert.NotEmpty(t, c.Identity())
		_, signedIn := c.CurrentUserID()
		assert.False(t, signedIn)
	})

	t.Run("should keep the same identity across reconnects", func(t *testing.T) {
		server := newTestServer(t)
		store := &MemoryCredentialStore{}

		// given: a first session persisting its credential
		first := dialTest(t, server, store)
		waitReady(t, first)
		identity := first.Identity()
		require.NotEmpty(t, store.Token)
		first.Close()

		// when: a new connection replays the stored credential
		second := dialTest(t, server, store)
		waitReady(t, second)

		// then
		assert.Equal(t, identity, second.Identity())
	})

	t.Run("should report a connect error for an unreachable endpoint", func(t *testing.T) {
		var connectErr error

		// when
		_, err := Dial(context.Background(), Config{
			URL:            "ws://127.0.0.1:1/v1/sync",
			OnConnectError: func(e error) { connectErr = e },
		})

		// then
		assert.Error(t, err)
		assert.Error(t, connectErr)
	})
}

func TestClient_SignIn(t *testing.T) {
	t.Run("should bind the session through the identity mirror", func(t *testing.T) {
		server := newTestServer(t)
		c := dialTest(t, server, nil)
		waitReady(t, c)

		// when
		userID := signIn(t, c, "alice")

		// then
		u, ok := c.Tables().Users.Get(userID)
		require.True(t, ok)
		assert.Equal(t, "alice", u.Username)
		assert.True(t, u.Online)
	})

	t.Run("should unbind on disconnect from client", func(t *testing.T) {
		server := newTestServer(t)
		c := dialTest(t, server, nil)
		waitReady(t, c)
		signIn(t, c, "alice")

		// when
		require.NoError(t, c.Reducers().DisconnectFromClient())

		// then
		require.Eventually(t, func() bool {
			_, ok := c.CurrentUserID()
			return !ok
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestClient_AvailabilityFlow(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.September, d, 0, 0, 0, 0, time.UTC)
	}
	iso := func(t time.Time) string { return t.Format(time.RFC3339Nano) }

	t.Run("should mirror a painted range back to its creator", func(t *testing.T) {
		server := newTestServer(t)
		c := dialTest(t, server, nil)
		waitReady(t, c)
		userID := signIn(t, c, "alice")

		// when
		require.NoError(t, c.Reducers().CreateAvailabilityRange(
			iso(day(1)), iso(utils.EndOfDay(day(5))), availability.LevelAvailable))

		// then
		require.Eventually(t, func() bool {
			return c.Tables().AvailabilityRanges.Len() == 1
		}, 2*time.Second, 10*time.Millisecond)
		rows := c.Tables().AvailabilityRanges.Snapshot()
		assert.Equal(t, userID, rows[0].CreatorUserID)
		assert.Equal(t, int8(availability.LevelAvailable), rows[0].AvailabilityLevel)
	})

	t.Run("should converge two clients to a half and half blend", func(t *testing.T) {
		server := newTestServer(t)
		alice := dialTest(t, server, nil)
		waitReady(t, alice)
		bob := dialTest(t, server, nil)
		waitReady(t, bob)
		signIn(t, alice, "alice")
		signIn(t, bob, "bob")

		// when: opposite levels painted over the same day
		require.NoError(t, alice.Reducers().CreateAvailabilityRange(
			iso(day(10)), iso(utils.EndOfDay(day(10))), availability.LevelAvailable))
		require.NoError(t, bob.Reducers().CreateAvailabilityRange(
			iso(day(10)), iso(utils.EndOfDay(day(10))), availability.LevelUnavailable))

		// then: both mirrors converge
		for _, c := range []*Client{alice, bob} {
			require.Eventually(t, func() bool {
				return c.Tables().AvailabilityRanges.Len() == 2
			}, 2*time.Second, 10*time.Millisecond)
		}

		// and the aggregate over either mirror splits the day evenly
		userID, _ := alice.CurrentUserID()
		bg := aggregate.DayBackground(
			day(10), alice.Tables().AvailabilityRanges.Snapshot(),
			aggregate.ViewAggregate, userID, nil, nil)
		require.Len(t, bg.Bands, 2)
		assert.Equal(t, aggregate.Band{Color: aggregate.ColorUnavailable, Width: 50}, bg.Bands[0])
		assert.Equal(t, aggregate.Band{Color: aggregate.ColorAvailable, Width: 50}, bg.Bands[1])
	})

	t.Run("should silently drop a mutation from a signed-out session", func(t *testing.T) {
		server := newTestServer(t)
		c := dialTest(t, server, nil)
		waitReady(t, c)

		// when: fire-and-forget with no profile bound
		err := c.Reducers().CreateAvailabilityRange(
			iso(day(1)), iso(utils.EndOfDay(day(2))), availability.LevelAvailable)

		// then: the write succeeds, no row ever appears
		require.NoError(t, err)
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, 0, c.Tables().AvailabilityRanges.Len())
		assert.True(t, c.Ready())
	})

	t.Run("should mirror a range label", func(t *testing.T) {
		server := newTestServer(t)
		c := dialTest(t, server, nil)
		waitReady(t, c)
		signIn(t, c, "alice")

		// when
		require.NoError(t, c.Reducers().CreateRangeLabel(
			"Vacation", 10, 20, 30, iso(day(1)), iso(utils.EndOfDay(day(3)))))

		// then
		require.Eventually(t, func() bool {
			return c.Tables().RangeLabels.Len() == 1
		}, 2*time.Second, 10*time.Millisecond)
		labels := c.Tables().RangeLabels.Snapshot()
		assert.Equal(t, "Vacation", labels[0].Title)
		assert.Equal(t, uint8(30), labels[0].ColorB)
	})

	t.Run("should deliver existing rows in the snapshot to a late client", func(t *testing.T) {
		server := newTestServer(t)
		first := dialTest(t, server, nil)
		waitReady(t, first)
		signIn(t, first, "alice")
		require.NoError(t, first.Reducers().CreateAvailabilityRange(
			iso(day(1)), iso(utils.EndOfDay(day(2))), availability.LevelArrangeable))
		require.Eventually(t, func() bool {
			return first.Tables().AvailabilityRanges.Len() == 1
		}, 2*time.Second, 10*time.Millisecond)

		// when
		late := dialTest(t, server, nil)
		waitReady(t, late)

		// then
		assert.Equal(t, 1, late.Tables().AvailabilityRanges.Len())
		assert.Equal(t, 1, late.Tables().Users.Len())
	})
}
