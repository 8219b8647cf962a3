package label

import (
	"context"
	"testing"
	"time"

	"github.com/Heavenston/headar/internal/event_bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverStub struct {
	userID uint32
	err    error
}

func (r *resolverStub) CurrentUserID(context.Context) (uint32, error) {
	return r.userID, r.err
}

var (
	repoStub = NewRepositoryStub()
	resolver = &resolverStub{userID: 1}
	ctx      = context.Background()
)

func setup(t *testing.T) (Service, func()) {
	resolver.userID = 1
	resolver.err = nil
	service := NewService(repoStub, event_bus.NewBus(), resolver)
	return service, func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
	}
}

const (
	startISO = "2026-07-01T00:00:00Z"
	endISO   = "2026-07-05T23:59:59.999999999Z"
)

func TestServiceImpl_CreateLabel(t *testing.T) {
	t.Run("should create a label", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()

		// when
		err := service.CreateLabel(ctx, "Vacation", Color{R: 240, G: 166, B: 165}, startISO, endISO)

		// then
		require.NoError(t, err)
		labels, _ := repoStub.GetByCreator(ctx, 1)
		require.Len(t, labels, 1)
		assert.Equal(t, "Vacation", labels[0].Title)
		assert.Equal(t, Color{R: 240, G: 166, B: 165}, labels[0].Color)
		assert.True(t, labels[0].Covers(time.Date(2026, time.July, 3, 12, 0, 0, 0, time.UTC)))
		assert.False(t, labels[0].Covers(time.Date(2026, time.July, 6, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("should reject an empty title", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()

		// when
		err := service.CreateLabel(ctx, "", Color{}, startISO, endISO)

		// then
		assert.ErrorIs(t, err, ErrEmptyTitle)
	})

	t.Run("should reject an interval ending before it starts", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()

		// when
		err := service.CreateLabel(ctx, "Backwards", Color{}, endISO, startISO)

		// then
		assert.ErrorIs(t, err, ErrInvalidTime)
	})

	t.Run("should fail when the caller is not signed in", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()
		resolver.err = assert.AnError

		// when
		err := service.CreateLabel(ctx, "Vacation", Color{}, startISO, endISO)

		// then
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestServiceImpl_DeleteLabel(t *testing.T) {
	t.Run("should delete an own label", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()
		created, _ := repoStub.Create(ctx, Label{CreatorUserID: 1, Title: "Mine"})

		// when
		err := service.DeleteLabel(ctx, created.ID)

		// then
		require.NoError(t, err)
		_, getErr := repoStub.Get(ctx, created.ID)
		assert.ErrorIs(t, getErr, ErrLabelNotFound)
	})

	t.Run("should refuse to delete another user's label", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()
		created, _ := repoStub.Create(ctx, Label{CreatorUserID: 2, Title: "Theirs"})

		// when
		err := service.DeleteLabel(ctx, created.ID)

		// then
		assert.ErrorIs(t, err, ErrNotOwner)
	})
}

func TestServiceImpl_DeleteAllForCreator(t *testing.T) {
	t.Run("should delete only the creator's labels", func(t *testing.T) {
		service, teardown := setup(t)
		defer teardown()
		repoStub.Create(ctx, Label{CreatorUserID: 1, Title: "a"})
		repoStub.Create(ctx, Label{CreatorUserID: 2, Title: "b"})

		// when
		err := service.DeleteAllForCreator(ctx, 1)

		// then
		require.NoError(t, err)
		mine, _ := repoStub.GetByCreator(ctx, 1)
		theirs, _ := repoStub.GetByCreator(ctx, 2)
		assert.Empty(t, mine)
		assert.Len(t, theirs, 1)
	})
}

func TestParseHexColor(t *testing.T) {
	t.Run("should parse with and without a leading hash", func(t *testing.T) {
		// when
		withHash, err1 := ParseHexColor("#f0a5a5")
		withoutHash, err2 := ParseHexColor("f0a5a5")

		// then
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, Color{R: 0xf0, G: 0xa5, B: 0xa5}, withHash)
		assert.Equal(t, withHash, withoutHash)
	})

	t.Run("should reject malformed strings", func(t *testing.T) {
		for _, s := range []string{"", "#fff", "zzzzzz", "#f0a5a5a5"} {
			_, err := ParseHexColor(s)
			assert.ErrorIs(t, err, ErrInvalidColor, s)
		}
	})

	t.Run("should round-trip through Hex", func(t *testing.T) {
		c := Color{R: 16, G: 32, B: 48}

		// when
		parsed, err := ParseHexColor(c.Hex())

		// then
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	})
}
