package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/Heavenston/headar/internal/event_bus"
	"github.com/Heavenston/headar/pkg/protocol"
)

// IdentityResolver maps the caller's transport identity to a signed-in user.
type IdentityResolver interface {
	CurrentUserID(ctx context.Context) (uint32, error)
}

type Service interface {
	// CreateRange stores a new availability range for the caller, first
	// carving the caller's existing ranges so no two of them overlap.
	// A LevelUnspecified range only carves: it erases whatever it covers
	// without storing anything.
	CreateRange(ctx context.Context, startISO, endISO string, level Level) error
	// DeleteRange removes one range; only its creator may delete it.
	DeleteRange(ctx context.Context, id uint32) error
	DeleteAllForCreator(ctx context.Context, userID uint32) error
}

type ServiceImpl struct {
	repo     Repository
	bus      *event_bus.Bus
	resolver IdentityResolver
}

func NewService(repo Repository, bus *event_bus.Bus, resolver IdentityResolver) *ServiceImpl {
	return &ServiceImpl{repo: repo, bus: bus, resolver: resolver}
}

func (s *ServiceImpl) CreateRange(ctx context.Context, startISO, endISO string, level Level) error {
	userID, err := s.resolver.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	if !level.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}

	start, err := parseUTC(startISO)
	if err != nil {
		return fmt.Errorf("%w: start: %v", ErrInvalidTime, err)
	}
	end, err := parseUTC(endISO)
	if err != nil {
		return fmt.Errorf("%w: end: %v", ErrInvalidTime, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end before start", ErrInvalidTime)
	}

	if err := s.carve(ctx, userID, start, end); err != nil {
		return err
	}

	// An unspecified paint erases: nothing left to store.
	if level == LevelUnspecified {
		return nil
	}

	created, err := s.repo.Create(ctx, Range{
		CreatorUserID: userID,
		Level:         level,
		Start:         start,
		End:           end,
	})
	if err != nil {
		return err
	}
	s.publish(event_bus.OpInsert, created, nil)
	return nil
}

// carve reshapes the user's existing ranges so [start, end] is uncovered:
// ranges fully inside are removed, ranges surrounding it are split in two,
// and partial overlaps are trimmed up to one nanosecond outside the interval.
func (s *ServiceImpl) carve(ctx context.Context, userID uint32, start, end time.Time) error {
	existing, err := s.repo.GetByCreator(ctx, userID)
	if err != nil {
		return err
	}

	for _, other := range existing {
		switch {
		// fully outside
		case other.End.Before(start) || other.Start.After(end):

		// fully inside [start, end]
		case !other.Start.Before(start) && !other.End.After(end):
			if err := s.repo.Delete(ctx, other.ID); err != nil {
				return err
			}
			s.publish(event_bus.OpDelete, other, nil)

		// surrounds [start, end]: split into a left and a right remainder
		case other.Start.Before(start) && other.End.After(end):
			left := other
			left.End = start.Add(-time.Nanosecond)
			if err := s.repo.Update(ctx, left); err != nil {
				return err
			}
			s.publish(event_bus.OpUpdate, left, other)

			right, err := s.repo.Create(ctx, Range{
				CreatorUserID: other.CreatorUserID,
				Level:         other.Level,
				Start:         end.Add(time.Nanosecond),
				End:           other.End,
			})
			if err != nil {
				return err
			}
			s.publish(event_bus.OpInsert, right, nil)

		// overlaps from below: trim its end
		case other.Start.Before(start):
			trimmed := other
			trimmed.End = start.Add(-time.Nanosecond)
			if err := s.repo.Update(ctx, trimmed); err != nil {
				return err
			}
			s.publish(event_bus.OpUpdate, trimmed, other)

		// overlaps from above: trim its start
		default:
			trimmed := other
			trimmed.Start = end.Add(time.Nanosecond)
			if err := s.repo.Update(ctx, trimmed); err != nil {
				return err
			}
			s.publish(event_bus.OpUpdate, trimmed, other)
		}
	}
	return nil
}

func (s *ServiceImpl) DeleteRange(ctx context.Context, id uint32) error {
	userID, err := s.resolver.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	rng, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if rng.CreatorUserID != userID {
		return ErrNotOwner
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(event_bus.OpDelete, rng, nil)
	return nil
}

func (s *ServiceImpl) DeleteAllForCreator(ctx context.Context, userID uint32) error {
	ranges, err := s.repo.GetByCreator(ctx, userID)
	if err != nil {
		return err
	}
	for _, rng := range ranges {
		if err := s.repo.Delete(ctx, rng.ID); err != nil {
			return err
		}
		s.publish(event_bus.OpDelete, rng, nil)
	}
	return nil
}

func (s *ServiceImpl) publish(op event_bus.ChangeOp, row Range, old any) {
	if old != nil {
		s.bus.Publish(event_bus.TableChanged{Table: protocol.TableRangeAvailability, Op: op, Row: row, Old: old})
		return
	}
	s.bus.Publish(event_bus.TableChanged{Table: protocol.TableRangeAvailability, Op: op, Row: row})
}

func parseUTC(iso string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return time.Time{}, err
	}
	if _, offset := t.Zone(); offset != 0 {
		return time.Time{}, fmt.Errorf("timestamp %q is not UTC", iso)
	}
	return t, nil
}
