package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

type StageRepository struct {
	DB *sql.DB
}

func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{DB: db}
}

func (r *StageRepository) List(ctx context.Context) ([]*entity.Stage, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, name, position FROM crm_stages ORDER BY position ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*entity.Stage
	for rows.Next() {
		var s entity.Stage
		if err := rows.Scan(&s.ID, &s.Name, &s.Position); err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid stage row: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *StageRepository) Create(ctx context.Context, name string, position int) (*entity.Stage, error) {
	s := &entity.Stage{ID: uuid.New().String(), Name: name, Position: position}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO crm_stages (id, name, position) VALUES ($1, $2, $3)`,
		s.ID, s.Name, s.Position,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *StageRepository) Rename(ctx context.Context, id, name string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE crm_stages SET name = $2 WHERE id = $1`, id, name)
	return expectOne(res, err)
}

func (r *StageRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM crm_stages WHERE id = $1`, id)
	if err != nil && isForeignKeyViolation(err) {
		return entity.ErrStageInUse
	}
	return expectOne(res, err)
}
