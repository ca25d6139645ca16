package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

type leadRow struct {
	ID        string
	CreatedAt time.Time
	StageID   string
	InquiryID sql.NullString
	FirstName string
	LastName  string
	Email     sql.NullString
	Phone     sql.NullString
	Company   sql.NullString
	Notes     sql.NullString
}

func (r leadRow) toEntity() (*entity.Lead, error) {
	l := &entity.Lead{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		StageID:   r.StageID,
		InquiryID: stringPtr(r.InquiryID),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     stringPtr(r.Email),
		Phone:     stringPtr(r.Phone),
		Company:   stringPtr(r.Company),
		Notes:     stringPtr(r.Notes),
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lead row: %w", err)
	}
	return l, nil
}

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) List(ctx context.Context) ([]*entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, created_at, stage_id, inquiry_id, first_name, last_name, email, phone, company, notes
		FROM crm_leads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*entity.Lead
	for rows.Next() {
		var row leadRow
		if err := rows.Scan(
			&row.ID,
			&row.CreatedAt,
			&row.StageID,
			&row.InquiryID,
			&row.FirstName,
			&row.LastName,
			&row.Email,
			&row.Phone,
			&row.Company,
			&row.Notes,
		); err != nil {
			return nil, err
		}
		l, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LeadRepository) Create(ctx context.Context, l *entity.Lead) error {
	query := `
		INSERT INTO crm_leads (id, created_at, stage_id, inquiry_id, first_name, last_name, email, phone, company, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query,
		l.ID,
		l.CreatedAt,
		l.StageID,
		nullString(l.InquiryID),
		l.FirstName,
		l.LastName,
		nullString(l.Email),
		nullString(l.Phone),
		nullString(l.Company),
		nullString(l.Notes),
	)
	return mapError(err)
}

func (r *LeadRepository) Update(ctx context.Context, id string, f entity.LeadFields) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE crm_leads
		SET first_name = $2, last_name = $3, email = $4, phone = $5, company = $6, notes = $7
		WHERE id = $1
	`,
		id,
		f.FirstName,
		f.LastName,
		nullString(f.Email),
		nullString(f.Phone),
		nullString(f.Company),
		nullString(f.Notes),
	)
	return expectOne(res, err)
}

// UpdateStage writes only stage_id, the single-row update a board drop issues.
func (r *LeadRepository) UpdateStage(ctx context.Context, id, stageID string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE crm_leads SET stage_id = $2 WHERE id = $1`, id, stageID)
	return expectOne(res, err)
}

// Delete removes the lead and, in the same transaction, clears the
// conversion on any inquiry that pointed at it.
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE inquiries SET converted_to_lead = FALSE, lead_id = NULL WHERE lead_id = $1`, id,
	); err != nil {
		_ = tx.Rollback()
		return mapError(err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM crm_leads WHERE id = $1`, id)
	if err := expectOne(res, err); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
