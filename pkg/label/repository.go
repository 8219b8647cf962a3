package label

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Create(ctx context.Context, l Label) (Label, error)
	Get(ctx context.Context, id uint32) (Label, error)
	Delete(ctx context.Context, id uint32) error
	GetByCreator(ctx context.Context, creatorUserID uint32) ([]Label, error)
	GetAll(ctx context.Context) ([]Label, error)
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, l Label) (Label, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO range_labels (creator_user_id, color_r, color_g, color_b, title, range_start, range_end)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.CreatorUserID, l.Color.R, l.Color.G, l.Color.B, l.Title,
		l.Start.UTC().Format(time.RFC3339Nano), l.End.UTC().Format(time.RFC3339Nano))
	if err != nil {
		log.Errorf("failed to create range label: %v", err)
		return Label{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Label{}, err
	}
	l.ID = uint32(id)
	return l, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id uint32) (Label, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, creator_user_id, color_r, color_g, color_b, title, range_start, range_end
		 FROM range_labels WHERE id = ?`, id)
	l, err := scanLabel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Label{}, ErrLabelNotFound
	}
	if err != nil {
		return Label{}, fmt.Errorf("failed to get range label %d: %w", id, err)
	}
	return l, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id uint32) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM range_labels WHERE id = ?`, id)
	if err != nil {
		log.Errorf("failed to delete range label %d: %v", id, err)
	}
	return err
}

func (r *RepositoryImpl) GetByCreator(ctx context.Context, creatorUserID uint32) ([]Label, error) {
	return r.query(ctx,
		`SELECT id, creator_user_id, color_r, color_g, color_b, title, range_start, range_end
		 FROM range_labels WHERE creator_user_id = ?`, creatorUserID)
}

func (r *RepositoryImpl) GetAll(ctx context.Context) ([]Label, error) {
	return r.query(ctx,
		`SELECT id, creator_user_id, color_r, color_g, color_b, title, range_start, range_end
		 FROM range_labels`)
}

func (r *RepositoryImpl) query(ctx context.Context, query string, args ...any) ([]Label, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list range labels: %w", err)
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLabel(row rowScanner) (Label, error) {
	var l Label
	var start, end string
	if err := row.Scan(&l.ID, &l.CreatorUserID, &l.Color.R, &l.Color.G, &l.Color.B, &l.Title, &start, &end); err != nil {
		return Label{}, err
	}
	var err error
	if l.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return Label{}, fmt.Errorf("malformed range_start %q: %w", start, err)
	}
	if l.End, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return Label{}, fmt.Errorf("malformed range_end %q: %w", end, err)
	}
	return l, nil
}
