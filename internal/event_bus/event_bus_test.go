package event_bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_Publish(t *testing.T) {
	t.Run("should deliver events to all subscribers in publish order", func(t *testing.T) {
		bus := NewBus()
		var first, second []TableChanged
		bus.Subscribe(func(e TableChanged) { first = append(first, e) })
		bus.Subscribe(func(e TableChanged) { second = append(second, e) })

		// when
		bus.Publish(TableChanged{Table: "user", Op: OpInsert})
		bus.Publish(TableChanged{Table: "user", Op: OpDelete})

		// then
		require.Len(t, first, 2)
		assert.Equal(t, OpInsert, first[0].Op)
		assert.Equal(t, OpDelete, first[1].Op)
		assert.Equal(t, first, second)
	})

	t.Run("should stop delivering after unsubscribe", func(t *testing.T) {
		bus := NewBus()
		calls := 0
		unsubscribe := bus.Subscribe(func(TableChanged) { calls++ })

		// when
		bus.Publish(TableChanged{Op: OpInsert})
		unsubscribe()
		bus.Publish(TableChanged{Op: OpInsert})

		// then
		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, bus.SubscriberCount())
	})

	t.Run("should survive a panicking handler", func(t *testing.T) {
		bus := NewBus()
		bus.Subscribe(func(TableChanged) { panic("broken subscriber") })
		delivered := false
		bus.Subscribe(func(TableChanged) { delivered = true })

		// when
		assert.NotPanics(t, func() {
			bus.Publish(TableChanged{Table: "user", Op: OpUpdate})
		})

		// then
		assert.True(t, delivered)
	})
}
