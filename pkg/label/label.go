package label

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Label is a titled, colored annotation over a date range. Labels are an
// overlay independent of availability levels.
type Label struct {
	ID            uint32
	CreatorUserID uint32
	Color         Color
	Title         string
	Start         time.Time
	End           time.Time
}

// Covers reports whether t falls inside the label's range, bounds inclusive.
func (l Label) Covers(t time.Time) bool {
	return !t.Before(l.Start) && !t.After(l.End)
}

// Color is an RGB triple with 0-255 channels.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Hex renders the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexColor parses a 6-hex-digit color string, with or without a leading
// '#'.
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

var (
	ErrLabelNotFound = errors.New("label not found")
	ErrNotOwner      = errors.New("label was created by another user")
	ErrInvalidTime   = errors.New("invalid label time")
	ErrInvalidColor  = errors.New("invalid color")
	ErrEmptyTitle    = errors.New("label title must not be empty")
)
