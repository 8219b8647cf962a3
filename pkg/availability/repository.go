package availability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Create(ctx context.Context, r Range) (Range, error)
	Get(ctx context.Context, id uint32) (Range, error)
	Update(ctx context.Context, r Range) error
	Delete(ctx context.Context, id uint32) error
	GetByCreator(ctx context.Context, creatorUserID uint32) ([]Range, error)
	GetAll(ctx context.Context) ([]Range, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, rng Range) (Range, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO range_availabilities (creator_user_id, availability_level, range_start, range_end)
		 VALUES (?, ?, ?, ?)`,
		rng.CreatorUserID, rng.Level, formatTime(rng.Start), formatTime(rng.End))
	if err != nil {
		log.Errorf("failed to create availability range: %v", err)
		return Range{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Range{}, err
	}
	rng.ID = uint32(id)
	return rng, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id uint32) (Range, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, creator_user_id, availability_level, range_start, range_end
		 FROM range_availabilities WHERE id = ?`, id)
	rng, err := scanRange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Range{}, ErrRangeNotFound
	}
	if err != nil {
		return Range{}, fmt.Errorf("failed to get availability range %d: %w", id, err)
	}
	return rng, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, rng Range) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE range_availabilities
		 SET creator_user_id = ?, availability_level = ?, range_start = ?, range_end = ?
		 WHERE id = ?`,
		rng.CreatorUserID, rng.Level, formatTime(rng.Start), formatTime(rng.End), rng.ID)
	if err != nil {
		log.Errorf("failed to update availability range %d: %v", rng.ID, err)
	}
	return err
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uint32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM range_availabilities WHERE id = ?`, id)
	if err != nil {
		log.Errorf("failed to delete availability range %d: %v", id, err)
	}
	return err
}

func (r *RepositoryImpl) GetByCreator(ctx context.Context, creatorUserID uint32) ([]Range, error) {
	return r.query(ctx,
		`SELECT id, creator_user_id, availability_level, range_start, range_end
		 FROM range_availabilities WHERE creator_user_id = ?`, creatorUserID)
}

func (r *RepositoryImpl) GetAll(ctx context.Context) ([]Range, error) {
	return r.query(ctx,
		`SELECT id, creator_user_id, availability_level, range_start, range_end
		 FROM range_availabilities`)
}

func (r *RepositoryImpl) query(ctx context.Context, query string, args ...any) ([]Range, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability ranges: %w", err)
	}
	defer rows.Close()

	var ranges []Range
	for rows.Next() {
		rng, err := scanRange(rows)
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, rng)
	}
	return ranges, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRange(row rowScanner) (Range, error) {
	var rng Range
	var start, end string
	if err := row.Scan(&rng.ID, &rng.CreatorUserID, &rng.Level, &start, &end); err != nil {
		return Range{}, err
	}
	var err error
	if rng.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return Range{}, fmt.Errorf("malformed range_start %q: %w", start, err)
	}
	if rng.End, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return Range{}, fmt.Errorf("malformed range_end %q: %w", end, err)
	}
	return rng, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
