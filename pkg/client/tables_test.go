package client

import (
	"encoding/json"
	"testing"

	"github.com/Heavenston/headar/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTables_Apply(t *testing.T) {
	t.Run("should route events to the matching mirror", func(t *testing.T) {
		tables := NewTables()

		// when
		tables.Apply(protocol.TableUpdate{
			Table:   protocol.TableUser,
			Inserts: []json.RawMessage{[]byte(`{"id":1,"username":"alice","online":true}`)},
		})
		tables.Apply(protocol.TableUpdate{
			Table:   protocol.TableRangeAvailability,
			Inserts: []json.RawMessage{[]byte(`{"id":7,"creatorUserId":1,"availabilityLevel":2,"rangeStart":"2026-09-01T00:00:00Z","rangeEnd":"2026-09-02T23:59:59.999999999Z"}`)},
		})

		// then
		u, ok := tables.Users.Get(1)
		require.True(t, ok)
		assert.Equal(t, "alice", u.Username)
		rng, ok := tables.AvailabilityRanges.Get(7)
		require.True(t, ok)
		assert.Equal(t, int8(2), rng.AvailabilityLevel)
		assert.Equal(t, 0, tables.Identities.Len())
	})

	t.Run("should skip malformed rows without poisoning the mirror", func(t *testing.T) {
		tables := NewTables()

		// when
		tables.Apply(protocol.TableUpdate{
			Table: protocol.TableUser,
			Inserts: []json.RawMessage{
				[]byte(`not json`),
				[]byte(`{"id":2,"username":"bob"}`),
			},
		})

		// then
		assert.Equal(t, 1, tables.Users.Len())
		_, ok := tables.Users.Get(2)
		assert.True(t, ok)
	})

	t.Run("should key updates on the new row id", func(t *testing.T) {
		tables := NewTables()
		tables.Apply(protocol.TableUpdate{
			Table:   protocol.TableUser,
			Inserts: []json.RawMessage{[]byte(`{"id":1,"username":"alice"}`)},
		})

		// when: the old value carries stale fields
		tables.Apply(protocol.TableUpdate{
			Table: protocol.TableUser,
			Updates: []protocol.RowUpdate{{
				Old: []byte(`{"id":1,"username":"stale"}`),
				New: []byte(`{"id":1,"username":"alicia"}`),
			}},
		})

		// then
		u, _ := tables.Users.Get(1)
		assert.Equal(t, "alicia", u.Username)
	})

	t.Run("should ignore events for unknown tables", func(t *testing.T) {
		tables := NewTables()

		// when
		tables.Apply(protocol.TableUpdate{
			Table:   "mystery",
			Inserts: []json.RawMessage{[]byte(`{"id":1}`)},
		})

		// then
		assert.Equal(t, 0, tables.Users.Len())
	})
}
