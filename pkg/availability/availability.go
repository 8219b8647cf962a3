package availability

import (
	"errors"
	"time"
)

// Level is a user's stated availability for a day range.
type Level int8

const (
	LevelUnspecified Level = -1
	LevelUnavailable Level = 0
	LevelArrangeable Level = 1
	LevelAvailable   Level = 2
)

func (l Level) Valid() bool {
	return l >= LevelUnspecified && l <= LevelAvailable
}

func (l Level) String() string {
	switch l {
	case LevelUnspecified:
		return "unspecified"
	case LevelUnavailable:
		return "unavailable"
	case LevelArrangeable:
		return "arrangeable"
	case LevelAvailable:
		return "available"
	default:
		return "invalid"
	}
}

// Range is one availability range. Start and End are inclusive and
// Start <= End.
type Range struct {
	ID            uint32
	CreatorUserID uint32
	Level         Level
	Start         time.Time
	End           time.Time
}

// Covers reports whether t falls inside the range, bounds inclusive.
func (r Range) Covers(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

var (
	ErrRangeNotFound = errors.New("range not found")
	ErrNotOwner      = errors.New("range was created by another user")
	ErrInvalidTime   = errors.New("invalid range time")
	ErrInvalidLevel  = errors.New("invalid availability level")
)
