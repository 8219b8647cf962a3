// Package aggregate derives per-day rendering data from the mirrored
// availability tables. It is pure and pull-based: callers hand in a day and a
// row snapshot and get a value back, nothing is watched or pushed.
package aggregate

import (
	"time"

	"github.com/Heavenston/headar/internal/utils"
	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/protocol"
)

// Day background colors.
const (
	ColorUnavailable = "#f0a5a5"
	ColorArrangeable = "#f0d6a5"
	ColorAvailable   = "#a5f0aa"
	ColorNoData      = "#e5e7eb"
)

// View selects whose availability a day cell displays.
type View int

const (
	// ViewPersonal shows only the current user's own ranges.
	ViewPersonal View = iota
	// ViewAggregate blends every user's ranges into proportional bands.
	ViewAggregate
)

// Band is one segment of a blended day background. Width is a percentage of
// the cell width.
type Band struct {
	Color string
	Width float64
}

// Background is the computed fill of one day cell: either a single solid
// color or a list of contiguous bands.
type Background struct {
	Solid string
	Bands []Band
}

// LevelColor maps an availability level to its cell color. Unspecified and
// out-of-range levels render as no-data.
func LevelColor(level availability.Level) string {
	switch level {
	case availability.LevelUnavailable:
		return ColorUnavailable
	case availability.LevelArrangeable:
		return ColorArrangeable
	case availability.LevelAvailable:
		return ColorAvailable
	default:
		return ColorNoData
	}
}

// Covering returns the subset of rows whose inclusive interval intersects
// day. Rows with unparseable timestamps are skipped.
func Covering(day time.Time, rows []protocol.RangeAvailabilityRow) []protocol.RangeAvailabilityRow {
	dayStart := utils.StartOfDay(day)
	dayEnd := utils.EndOfDay(day)

	var covering []protocol.RangeAvailabilityRow
	for _, row := range rows {
		start, err := time.Parse(time.RFC3339Nano, row.RangeStart)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339Nano, row.RangeEnd)
		if err != nil {
			continue
		}
		if start.After(dayEnd) || end.Before(dayStart) {
			continue
		}
		covering = append(covering, row)
	}
	return covering
}

// Counts tallies covering rows per level. The denominator of the blend is the
// number of ranges, not the number of users: a user covered by two ranges on
// the same day counts twice.
func Counts(day time.Time, rows []protocol.RangeAvailabilityRow) [3]int {
	var counts [3]int
	for _, row := range Covering(day, rows) {
		level := availability.Level(row.AvailabilityLevel)
		if level >= availability.LevelUnavailable && level <= availability.LevelAvailable {
			counts[level]++
		}
	}
	return counts
}

// BestLevel picks the most frequent level, resolving ties toward the lowest
// level by scanning 0, 1, 2 and keeping the first maximum. Returns
// LevelUnspecified when all counts are zero.
func BestLevel(counts [3]int) availability.Level {
	best := availability.LevelUnspecified
	bestCount := 0
	for level, count := range counts {
		if count > bestCount {
			best = availability.Level(level)
			bestCount = count
		}
	}
	return best
}

// PersonalLevel returns the level of userID's range covering day, or
// LevelUnspecified when none covers it.
func PersonalLevel(day time.Time, rows []protocol.RangeAvailabilityRow, userID uint32) availability.Level {
	for _, row := range Covering(day, rows) {
		if row.CreatorUserID == userID {
			return availability.Level(row.AvailabilityLevel)
		}
	}
	return availability.LevelUnspecified
}

// DayBackground computes the fill of one day cell.
//
// Personal view shows only the current user's own level. In aggregate view a
// locked user, then a focused user, takes precedence over the blend: the cell
// shows only that user's level. With neither set the cell blends all covering
// ranges into three bands in level order 0, 1, 2, each sized
// count/total*100; with no covering ranges the cell is the no-data color.
func DayBackground(day time.Time, rows []protocol.RangeAvailabilityRow, view View, currentUserID uint32, focused, locked *uint32) Background {
	if view == ViewPersonal {
		return Background{Solid: LevelColor(PersonalLevel(day, rows, currentUserID))}
	}

	if locked != nil {
		return Background{Solid: LevelColor(PersonalLevel(day, rows, *locked))}
	}
	if focused != nil {
		return Background{Solid: LevelColor(PersonalLevel(day, rows, *focused))}
	}

	counts := Counts(day, rows)
	total := counts[0] + counts[1] + counts[2]
	if total == 0 {
		return Background{Solid: ColorNoData}
	}

	var bands []Band
	for level, count := range counts {
		if count == 0 {
			continue
		}
		bands = append(bands, Band{
			Color: LevelColor(availability.Level(level)),
			Width: float64(count) / float64(total) * 100,
		})
	}
	return Background{Bands: bands}
}

// LabelsOn returns the labels whose inclusive interval intersects day, as an
// overlay independent of level aggregation.
func LabelsOn(day time.Time, labels []protocol.RangeLabelRow) []protocol.RangeLabelRow {
	dayStart := utils.StartOfDay(day)
	dayEnd := utils.EndOfDay(day)

	var covering []protocol.RangeLabelRow
	for _, row := range labels {
		start, err := time.Parse(time.RFC3339Nano, row.RangeStart)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339Nano, row.RangeEnd)
		if err != nil {
			continue
		}
		if start.After(dayEnd) || end.Before(dayStart) {
			continue
		}
		covering = append(covering, row)
	}
	return covering
}
