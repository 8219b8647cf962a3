package selection

import (
	"context"
	"testing"
	"time"

	"github.com/Heavenston/headar/internal/event_bus"
	"github.com/Heavenston/headar/internal/utils"
	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/label"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rangeCall struct {
	startISO string
	endISO   string
	level    availability.Level
}

type labelCall struct {
	title    string
	color    label.Color
	startISO string
	endISO   string
}

// committerRecorder records every dispatched mutation.
type committerRecorder struct {
	ranges []rangeCall
	labels []labelCall
}

func (c *committerRecorder) CreateAvailabilityRange(startISO, endISO string, level availability.Level) error {
	c.ranges = append(c.ranges, rangeCall{startISO: startISO, endISO: endISO, level: level})
	return nil
}

func (c *committerRecorder) CreateRangeLabel(title string, colorR, colorG, colorB uint8, startISO, endISO string) error {
	c.labels = append(c.labels, labelCall{
		title:    title,
		color:    label.Color{R: colorR, G: colorG, B: colorB},
		startISO: startISO,
		endISO:   endISO,
	})
	return nil
}

var (
	day1 = time.Date(2026, time.March, 1, 10, 30, 0, 0, time.UTC)
	day2 = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	day3 = time.Date(2026, time.March, 3, 19, 45, 0, 0, time.UTC)
)

func isoStartOf(day time.Time) string {
	return utils.StartOfDay(day).Format(time.RFC3339Nano)
}

func isoEndOf(day time.Time) string {
	return utils.EndOfDay(day).Format(time.RFC3339Nano)
}

func TestMachine_Drag(t *testing.T) {
	t.Run("should commit a normalized interval on drag release", func(t *testing.T) {
		recorder := &committerRecorder{}
		machine := NewMachine(recorder, availability.LevelAvailable)

		// when
		machine.PointerDown(day1)
		machine.PointerEnter(day2)
		machine.PointerEnter(day3)
		machine.PointerUp(day3)

		// then
		require.Len(t, recorder.ranges, 1)
		assert.Equal(t, isoStartOf(day1), recorder.ranges[0].startISO)
		assert.Equal(t, isoEndOf(day3), recorder.ranges[0].endISO)
		assert.Equal(t, availability.LevelAvailable, recorder.ranges[0].level)
		assert.False(t, machine.Selecting())
	})

	t.Run("should commit the same interval when dragged backwards", func(t *testing.T) {
		forward := &committerRecorder{}
		backward := &committerRecorder{}

		// when
		m1 := NewMachine(forward, availability.LevelArrangeable)
		m1.PointerDown(day1)
		m1.PointerEnter(day3)
		m1.PointerUp(day3)

		m2 := NewMachine(backward, availability.LevelArrangeable)
		m2.PointerDown(day3)
		m2.PointerEnter(day1)
		m2.PointerUp(day1)

		// then
		require.Len(t, forward.ranges, 1)
		require.Len(t, backward.ranges, 1)
		assert.Equal(t, forward.ranges[0], backward.ranges[0])
		assert.Equal(t, isoStartOf(day1), backward.ranges[0].startISO)
		assert.Equal(t, isoEndOf(day3), backward.ranges[0].endISO)
	})

	t.Run("should keep selecting when released on the anchor day", func(t *testing.T) {
		recorder := &committerRecorder{}
		machine := NewMachine(recorder, availability.LevelAvailable)

		// when: a plain click, press and release on the same day
		machine.PointerDown(day1)
		machine.PointerUp(day1)

		// then
		assert.Empty(t, recorder.ranges)
		assert.True(t, machine.Selecting())
	})
}

func TestMachine_ClickClick(t *testing.T) {
	t.Run("should commit on the second click", func(t *testing.T) {
		recorder := &committerRecorder{}
		machine := NewMachine(recorder, availability.LevelUnavailable)

		// when
		machine.PointerDown(day1)
		machine.PointerUp(day1)
		machine.PointerDown(day3)

		// then
		require.Len(t, recorder.ranges, 1)
		assert.Equal(t, isoStartOf(day1), recorder.ranges[0].startISO)
		assert.Equal(t, isoEndOf(day3), recorder.ranges[0].endISO)
		assert.False(t, machine.Selecting())
	})

	t.Run("should match the interval produced by a drag", func(t *testing.T) {
		clicked := &committerRecorder{}
		dragged := &committerRecorder{}

		// when
		m1 := NewMachine(clicked, availability.LevelAvailable)
		m1.PointerDown(day1)
		m1.PointerUp(day1)
		m1.PointerDown(day2)

		m2 := NewMachine(dragged, availability.LevelAvailable)
		m2.PointerDown(day1)
		m2.PointerEnter(day2)
		m2.PointerUp(day2)

		// then
		require.Len(t, clicked.ranges, 1)
		require.Len(t, dragged.ranges, 1)
		assert.Equal(t, dragged.ranges[0], clicked.ranges[0])
	})
}

func TestMachine_Cancel(t *testing.T) {
	t.Run("should dispatch nothing after cancel", func(t *testing.T) {
		recorder := &committerRecorder{}
		machine := NewMachine(recorder, availability.LevelAvailable)
		machine.PointerDown(day1)
		machine.PointerEnter(day3)

		// when
		machine.Cancel()

		// then
		assert.Empty(t, recorder.ranges)
		assert.Empty(t, recorder.labels)
		assert.False(t, machine.Selecting())
	})

	t.Run("should start a fresh selection after cancel", func(t *testing.T) {
		recorder := &committerRecorder{}
		machine := NewMachine(recorder, availability.LevelAvailable)
		machine.PointerDown(day1)
		machine.Cancel()

		// when
		machine.PointerDown(day2)
		machine.PointerEnter(day3)
		machine.PointerUp(day3)

		// then
		require.Len(t, recorder.ranges, 1)
		assert.Equal(t, isoStartOf(day2), recorder.ranges[0].startISO)
	})
}

func TestMachine_LabelBrush(t *testing.T) {
	t.Run("should create a label instead of a range when armed", func(t *testing.T) {
		recorder := &committerRecorder{}
		machine := NewMachine(recorder, availability.LevelAvailable)
		machine.ArmLabel("Vacation", label.Color{R: 10, G: 20, B: 30})

		// when
		machine.PointerDown(day1)
		machine.PointerEnter(day2)
		machine.PointerUp(day2)

		// then
		assert.Empty(t, recorder.ranges)
		require.Len(t, recorder.labels, 1)
		assert.Equal(t, "Vacation", recorder.labels[0].title)
		assert.Equal(t, label.Color{R: 10, G: 20, B: 30}, recorder.labels[0].color)
		assert.Equal(t, isoStartOf(day1), recorder.labels[0].startISO)
		assert.Equal(t, isoEndOf(day2), recorder.labels[0].endISO)
	})

	t.Run("should revert to level painting after one commit", func(t *testing.T) {
		recorder := &committerRecorder{}
		machine := NewMachine(recorder, availability.LevelArrangeable)
		machine.ArmLabel("Once", label.Color{R: 1, G: 2, B: 3})

		// when: two selections back to back
		machine.PointerDown(day1)
		machine.PointerEnter(day2)
		machine.PointerUp(day2)

		machine.PointerDown(day2)
		machine.PointerEnter(day3)
		machine.PointerUp(day3)

		// then
		require.Len(t, recorder.labels, 1)
		require.Len(t, recorder.ranges, 1)
		assert.Equal(t, availability.LevelArrangeable, recorder.ranges[0].level)
	})
}

func TestMachine_ArmLevel(t *testing.T) {
	t.Run("should paint subsequent commits with the armed level", func(t *testing.T) {
		recorder := &committerRecorder{}
		machine := NewMachine(recorder, availability.LevelAvailable)

		// when
		machine.ArmLevel(availability.LevelUnspecified)
		machine.PointerDown(day1)
		machine.PointerEnter(day2)
		machine.PointerUp(day2)

		// then
		require.Len(t, recorder.ranges, 1)
		assert.Equal(t, availability.LevelUnspecified, recorder.ranges[0].level)
	})
}

// fixedResolver resolves every context to one user.
type fixedResolver struct{ userID uint32 }

func (r fixedResolver) CurrentUserID(context.Context) (uint32, error) {
	return r.userID, nil
}

// serviceCommitter commits selections straight into the availability service,
// the way the gateway does over the wire.
type serviceCommitter struct {
	svc availability.Service
}

func (c serviceCommitter) CreateAvailabilityRange(startISO, endISO string, level availability.Level) error {
	return c.svc.CreateRange(context.Background(), startISO, endISO, level)
}

func (c serviceCommitter) CreateRangeLabel(string, uint8, uint8, uint8, string, string) error {
	return nil
}

func TestMachine_CommitTimezone(t *testing.T) {
	t.Run("should serialize non-UTC days so the service accepts them", func(t *testing.T) {
		// given: a calendar whose days live two hours east of UTC
		repo := availability.NewRepositoryStub()
		service := availability.NewService(repo, event_bus.NewBus(), fixedResolver{userID: 1})
		machine := NewMachine(serviceCommitter{svc: service}, availability.LevelAvailable)

		zone := time.FixedZone("east", 2*60*60)
		localDay1 := time.Date(2026, time.September, 3, 9, 0, 0, 0, zone)
		localDay2 := time.Date(2026, time.September, 4, 9, 0, 0, 0, zone)

		// when
		machine.PointerDown(localDay1)
		machine.PointerEnter(localDay2)
		machine.PointerUp(localDay2)

		// then: the paint landed, covering the local day boundaries
		ranges, err := repo.GetByCreator(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, ranges, 1)
		assert.True(t, ranges[0].Start.Equal(utils.StartOfDay(localDay1)))
		assert.True(t, ranges[0].End.Equal(utils.EndOfDay(localDay2)))
	})
}

func TestMachine_Selection(t *testing.T) {
	t.Run("should expose the normalized pending interval", func(t *testing.T) {
		machine := NewMachine(&committerRecorder{}, availability.LevelAvailable)
		machine.PointerDown(day3)
		machine.PointerEnter(day1)

		// when
		start, end, ok := machine.Selection()

		// then
		assert.True(t, ok)
		assert.Equal(t, utils.StartOfDay(day1), start)
		assert.Equal(t, utils.EndOfDay(day3), end)
	})

	t.Run("should report no interval while idle", func(t *testing.T) {
		machine := NewMachine(&committerRecorder{}, availability.LevelAvailable)

		// when
		_, _, ok := machine.Selection()

		// then
		assert.False(t, ok)
	})
}
