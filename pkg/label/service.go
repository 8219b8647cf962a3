package label

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
	CreateLabel(ctx context.Context, title string, color Color, startISO, endISO string) error
	// DeleteLabel removes one label; only its creator may delete it.
	DeleteLabel(ctx context.Context, id uint32) error
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

func (s *ServiceImpl) CreateLabel(ctx context.Context, title string, color Color, startISO, endISO string) error {
	userID, err := s.resolver.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	if title == "" {
		return ErrEmptyTitle
	}

	start, err := time.Parse(time.RFC3339Nano, startISO)
	if err != nil {
		return fmt.Errorf("%w: start: %v", ErrInvalidTime, err)
	}
	end, err := time.Parse(time.RFC3339Nano, endISO)
	if err != nil {
		return fmt.Errorf("%w: end: %v", ErrInvalidTime, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end before start", ErrInvalidTime)
	}

	created, err := s.repo.Create(ctx, Label{
		CreatorUserID: userID,
		Color:         color,
		Title:         title,
		Start:         start,
		End:           end,
	})
	if err != nil {
		return err
	}
	s.bus.Publish(event_bus.TableChanged{
		Table: protocol.TableRangeLabels,
		Op:    event_bus.OpInsert,
		Row:   created,
	})
	return nil
}

func (s *ServiceImpl) DeleteLabel(ctx context.Context, id uint32) error {
	userID, err := s.resolver.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.CreatorUserID != userID {
		return ErrNotOwner
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(event_bus.TableChanged{
		Table: protocol.TableRangeLabels,
		Op:    event_bus.OpDelete,
		Row:   l,
	})
	return nil
}

func (s *ServiceImpl) DeleteAllForCreator(ctx context.Context, userID uint32) error {
	labels, err := s.repo.GetByCreator(ctx, userID)
	if err != nil {
		return err
	}
	for _, l := range labels {
		if err := s.repo.Delete(ctx, l.ID); err != nil {
			return err
		}
		s.bus.Publish(event_bus.TableChanged{
			Table: protocol.TableRangeLabels,
			Op:    event_bus.OpDelete,
			Row:   l,
		})
	}
	return nil
}
