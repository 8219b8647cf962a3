package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Repo interface {
	CreateUser(ctx context.Context, username string) (User, error)
	GetUser(ctx context.Context, id uint32) (User, error)
	UpdateUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, id uint32) error
	GetAllUsers(ctx context.Context) ([]User, error)

	GetIdentity(ctx context.Context, identity string) (Identity, bool, error)
	InsertIdentity(ctx context.Context, ident Identity) error
	UpdateIdentity(ctx context.Context, ident Identity) error
	GetIdentitiesByUser(ctx context.Context, userID uint32) ([]Identity, error)
	GetAllIdentities(ctx context.Context) ([]Identity, error)
	CountOnlineIdentities(ctx context.Context, userID uint32) (int, error)
}

type UserRepoImpl struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

func (r *UserRepoImpl) CreateUser(ctx context.Context, username string) (User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, online) VALUES (?, 0)`, username)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{ID: uint32(id), Username: username, Online: false}, nil
}

func (r *UserRepoImpl) GetUser(ctx context.Context, id uint32) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, online FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Online)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

func (r *UserRepoImpl) UpdateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username = ?, online = ? WHERE id = ?`,
		u.Username, u.Online, u.ID)
	if err != nil {
		log.Errorf("failed to update user %d: %v", u.ID, err)
	}
	return err
}

func (r *UserRepoImpl) DeleteUser(ctx context.Context, id uint32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		log.Errorf("failed to delete user %d: %v", id, err)
	}
	return err
}

func (r *UserRepoImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, online FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Online); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepoImpl) GetIdentity(ctx context.Context, identity string) (Identity, bool, error) {
	var ident Identity
	err := r.db.QueryRowContext(ctx,
		`SELECT identity, user_id, online FROM user_identities WHERE identity = ?`, identity).
		Scan(&ident.Identity, &ident.UserID, &ident.Online)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, fmt.Errorf("failed to get identity: %w", err)
	}
	return ident, true, nil
}

func (r *UserRepoImpl) InsertIdentity(ctx context.Context, ident Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_identities (identity, user_id, online) VALUES (?, ?, ?)`,
		ident.Identity, ident.UserID, ident.Online)
	if err != nil {
		log.Errorf("failed to insert identity: %v", err)
	}
	return err
}

func (r *UserRepoImpl) UpdateIdentity(ctx context.Context, ident Identity) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_identities SET user_id = ?, online = ? WHERE identity = ?`,
		ident.UserID, ident.Online, ident.Identity)
	if err != nil {
		log.Errorf("failed to update identity: %v", err)
	}
	return err
}

func (r *UserRepoImpl) GetIdentitiesByUser(ctx context.Context, userID uint32) ([]Identity, error) {
	return r.queryIdentities(ctx,
		`SELECT identity, user_id, online FROM user_identities WHERE user_id = ?`, userID)
}

func (r *UserRepoImpl) GetAllIdentities(ctx context.Context) ([]Identity, error) {
	return r.queryIdentities(ctx, `SELECT identity, user_id, online FROM user_identities`)
}

func (r *UserRepoImpl) CountOnlineIdentities(ctx context.Context, userID uint32) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_identities WHERE online = 1 AND user_id = ?`, userID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count online identities: %w", err)
	}
	return count, nil
}

func (r *UserRepoImpl) queryIdentities(ctx context.Context, query string, args ...any) ([]Identity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var idents []Identity
	for rows.Next() {
		var ident Identity
		if err := rows.Scan(&ident.Identity, &ident.UserID, &ident.Online); err != nil {
			return nil, err
		}
		idents = append(idents, ident)
	}
	return idents, rows.Err()
}
