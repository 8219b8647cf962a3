// Package selection turns raw pointer and keyboard events over a grid of day
// cells into a single normalized date interval and one mutation call.
package selection

import (
	"sync"
	"time"

	"github.com/Heavenston/headar/internal/utils"
	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/label"
	log "github.com/sirupsen/logrus"
)

// Committer receives the single mutation produced by a committed selection.
// client.Reducers satisfies it.
type Committer interface {
	CreateAvailabilityRange(startISO, endISO string, level availability.Level) error
	CreateRangeLabel(title string, colorR, colorG, colorB uint8, startISO, endISO string) error
}

// LabelBrush is the one-shot label-authoring paint value. When armed it
// overrides the level brush for exactly one commit.
type LabelBrush struct {
	Title string
	Color label.Color
}

// Machine is the range-selection state machine. It is not safe for
// concurrent use: all events are expected to arrive on the single UI event
// path. Only one selection can be pending at a time: a pointer-down while
// selecting always closes the pending selection, never starts a second one.
type Machine struct {
	mu sync.Mutex

	committer Committer

	selecting bool
	anchor    time.Time
	current   time.Time

	level      availability.Level
	labelBrush *LabelBrush
}

// NewMachine creates an idle machine painting with the given level.
func NewMachine(committer Committer, level availability.Level) *Machine {
	return &Machine{committer: committer, level: level}
}

// ArmLevel selects the availability level painted by subsequent commits.
func (m *Machine) ArmLevel(level availability.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
	m.labelBrush = nil
}

// ArmLabel arms a one-shot label brush: the next commit creates a range
// label instead of an availability range, then reverts to level painting.
func (m *Machine) ArmLabel(title string, color label.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labelBrush = &LabelBrush{Title: title, Color: color}
}

// PointerDown handles a primary-button press on a day cell. It starts a
// selection when idle; while selecting it acts as the closing click,
// committing immediately with day as the new endpoint.
func (m *Machine) PointerDown(day time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selecting {
		m.current = day
		m.commitLocked()
		return
	}
	m.selecting = true
	m.anchor = day
	m.current = day
}

// PointerEnter extends the pending selection to day. No-op while idle.
func (m *Machine) PointerEnter(day time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.selecting {
		return
	}
	m.current = day
}

// PointerUp ends a drag. Releasing on the anchor day is a plain click and
// keeps the selection pending (click to start, click again to finish);
// releasing anywhere else commits.
func (m *Machine) PointerUp(day time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.selecting {
		return
	}
	if utils.SameDay(day, m.anchor) {
		return
	}
	m.current = day
	m.commitLocked()
}

// Cancel discards the pending selection without committing. It is the
// handler for Escape, outside pointer-downs and context-menu events.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selecting = false
	m.anchor = time.Time{}
	m.current = time.Time{}
}

// Selecting reports whether a selection is pending.
func (m *Machine) Selecting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selecting
}

// Selection returns the pending interval, normalized so start <= end, for
// rendering highlight state.
func (m *Machine) Selection() (start, end time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.selecting {
		return time.Time{}, time.Time{}, false
	}
	start, end = normalize(m.anchor, m.current)
	return start, end, true
}

// commitLocked normalizes the pending interval and issues exactly one
// mutation call carrying the armed paint value.
func (m *Machine) commitLocked() {
	start, end := normalize(m.anchor, m.current)
	m.selecting = false
	m.anchor = time.Time{}
	m.current = time.Time{}

	// Day boundaries are computed in the day's own location, but the wire
	// format is UTC only.
	startISO := start.UTC().Format(time.RFC3339Nano)
	endISO := end.UTC().Format(time.RFC3339Nano)

	if brush := m.labelBrush; brush != nil {
		m.labelBrush = nil
		err := m.committer.CreateRangeLabel(
			brush.Title, brush.Color.R, brush.Color.G, brush.Color.B, startISO, endISO)
		if err != nil {
			log.Errorf("failed to dispatch range label: %v", err)
		}
		return
	}

	if err := m.committer.CreateAvailabilityRange(startISO, endISO, m.level); err != nil {
		log.Errorf("failed to dispatch availability range: %v", err)
	}
}

// normalize orders the endpoints and clamps them to day boundaries, so
// dragging backward yields the same interval as dragging forward.
func normalize(a, b time.Time) (start, end time.Time) {
	start, end = a, b
	if start.After(end) {
		start, end = end, start
	}
	return utils.StartOfDay(start), utils.EndOfDay(end)
}
