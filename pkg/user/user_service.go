package user

import (
	"context"
	"fmt"

	"github.com/Heavenston/headar/internal/event_bus"
	"github.com/Heavenston/headar/pkg/protocol"
	log "github.com/sirupsen/logrus"
)

// CascadeDeleter removes all rows owned by a user from a dependent table.
// Implemented by the availability and label services so that deleting an
// account scrubs everything it created.
type CascadeDeleter interface {
	DeleteAllForCreator(ctx context.Context, userID uint32) error
}

type Service interface {
	// HandleClientConnected runs the connect bookkeeping for the caller's
	// identity: mark it online, create it with user id 0 if unknown, and
	// bring the bound user online.
	HandleClientConnected(ctx context.Context) error
	// HandleClientDisconnected marks the caller's identity offline and
	// recomputes the bound user's online flag.
	HandleClientDisconnected(ctx context.Context) error

	CreateUser(ctx context.Context, username string) (User, error)
	DeleteUser(ctx context.Context, userID uint32) error
	ConnectToClient(ctx context.Context, userID uint32) error
	DisconnectFromClient(ctx context.Context) error
	Rename(ctx context.Context, newUsername string) error

	// CurrentUserID resolves the caller's identity to a signed-in user id.
	// Returns ErrNotSignedIn when the identity is bound to user id 0.
	CurrentUserID(ctx context.Context) (uint32, error)
}

type ServiceImpl struct {
	repo   Repo
	bus    *event_bus.Bus
	ranges CascadeDeleter
	labels CascadeDeleter
}

func NewService(repo Repo, bus *event_bus.Bus) *ServiceImpl {
	return &ServiceImpl{repo: repo, bus: bus}
}

// SetCascades wires the dependent-table deleters. Separate from the
// constructor because the availability and label services need the user
// service first (they resolve identities through it).
func (s *ServiceImpl) SetCascades(ranges, labels CascadeDeleter) {
	s.ranges = ranges
	s.labels = labels
}

func (s *ServiceImpl) HandleClientConnected(ctx context.Context) error {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return err
	}

	ident, found, err := s.repo.GetIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if !found {
		ident = Identity{Identity: identity, UserID: 0, Online: true}
		if err := s.repo.InsertIdentity(ctx, ident); err != nil {
			return err
		}
		s.publish(protocol.TableUserIdentity, event_bus.OpInsert, ident, nil)
		return nil
	}

	old := ident
	ident.Online = true
	if err := s.repo.UpdateIdentity(ctx, ident); err != nil {
		return err
	}
	s.publish(protocol.TableUserIdentity, event_bus.OpUpdate, ident, old)

	if ident.UserID != 0 {
		if err := s.setUserOnline(ctx, ident.UserID, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceImpl) HandleClientDisconnected(ctx context.Context) error {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return err
	}

	ident, found, err := s.repo.GetIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if !found {
		log.Warnf("sender %s has no user identity", identity)
		return nil
	}

	old := ident
	ident.Online = false
	if err := s.repo.UpdateIdentity(ctx, ident); err != nil {
		return err
	}
	s.publish(protocol.TableUserIdentity, event_bus.OpUpdate, ident, old)

	if ident.UserID != 0 {
		return s.recomputeUserOnline(ctx, ident.UserID)
	}
	return nil
}

func (s *ServiceImpl) CreateUser(ctx context.Context, username string) (User, error) {
	if username == "" {
		return User{}, ErrEmptyUsername
	}
	u, err := s.repo.CreateUser(ctx, username)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	s.publish(protocol.TableUser, event_bus.OpInsert, u, nil)
	return u, nil
}

func (s *ServiceImpl) DeleteUser(ctx context.Context, userID uint32) error {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.publish(protocol.TableUser, event_bus.OpDelete, u, nil)

	// Unbind every identity signed into the deleted account.
	idents, err := s.repo.GetIdentitiesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, ident := range idents {
		old := ident
		ident.UserID = 0
		if err := s.repo.UpdateIdentity(ctx, ident); err != nil {
			return err
		}
		s.publish(protocol.TableUserIdentity, event_bus.OpUpdate, ident, old)
	}

	if s.ranges != nil {
		if err := s.ranges.DeleteAllForCreator(ctx, userID); err != nil {
			return err
		}
	}
	if s.labels != nil {
		if err := s.labels.DeleteAllForCreator(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServiceImpl) ConnectToClient(ctx context.Context, userID uint32) error {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return err
	}
	ident, found, err := s.repo.GetIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if !found {
		log.Warnf("sender %s has no user identity", identity)
		return nil
	}
	if ident.UserID != 0 {
		return ErrAlreadySigned
	}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	old := ident
	ident.UserID = u.ID
	if err := s.repo.UpdateIdentity(ctx, ident); err != nil {
		return err
	}
	s.publish(protocol.TableUserIdentity, event_bus.OpUpdate, ident, old)

	return s.setUserOnline(ctx, u.ID, true)
}

func (s *ServiceImpl) DisconnectFromClient(ctx context.Context) error {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return err
	}
	ident, found, err := s.repo.GetIdentity(ctx, identity)
	if err != nil {
		return err
	}
	if !found {
		log.Warnf("sender %s has no user identity", identity)
		return nil
	}
	if ident.UserID == 0 {
		return ErrNotLoggedIn
	}

	old := ident
	userID := ident.UserID
	ident.UserID = 0
	if err := s.repo.UpdateIdentity(ctx, ident); err != nil {
		return err
	}
	s.publish(protocol.TableUserIdentity, event_bus.OpUpdate, ident, old)

	return s.recomputeUserOnline(ctx, userID)
}

func (s *ServiceImpl) Rename(ctx context.Context, newUsername string) error {
	if newUsername == "" {
		return ErrEmptyUsername
	}
	userID, err := s.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	old := u
	u.Username = newUsername
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.publish(protocol.TableUser, event_bus.OpUpdate, u, old)
	return nil
}

func (s *ServiceImpl) CurrentUserID(ctx context.Context) (uint32, error) {
	identity, err := IdentityFrom(ctx)
	if err != nil {
		return 0, err
	}
	ident, found, err := s.repo.GetIdentity(ctx, identity)
	if err != nil {
		return 0, err
	}
	if !found || ident.UserID == 0 {
		return 0, ErrNotSignedIn
	}
	return ident.UserID, nil
}

// setUserOnline updates the user's online flag, publishing only on change.
func (s *ServiceImpl) setUserOnline(ctx context.Context, userID uint32, online bool) error {
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		log.Warnf("could not find user %d", userID)
		return nil
	}
	if u.Online == online {
		return nil
	}
	old := u
	u.Online = online
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.publish(protocol.TableUser, event_bus.OpUpdate, u, old)
	return nil
}

// recomputeUserOnline derives the user's online flag from its remaining
// online identities.
func (s *ServiceImpl) recomputeUserOnline(ctx context.Context, userID uint32) error {
	count, err := s.repo.CountOnlineIdentities(ctx, userID)
	if err != nil {
		return err
	}
	return s.setUserOnline(ctx, userID, count > 0)
}

func (s *ServiceImpl) publish(table string, op event_bus.ChangeOp, row, old any) {
	s.bus.Publish(event_bus.TableChanged{Table: table, Op: op, Row: row, Old: old})
}
