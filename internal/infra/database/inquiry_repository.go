package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

const inquiryColumns = `id, created_at, first_name, last_name, email, phone, message, source_url, converted_to_lead, lead_id`

// inquiryRow is the typed shape of an inquiries row.
type inquiryRow struct {
	ID              string
	CreatedAt       time.Time
	FirstName       string
	LastName        string
	Email           string
	Phone           sql.NullString
	Message         string
	SourceURL       sql.NullString
	ConvertedToLead bool
	LeadID          sql.NullString
}

func (r inquiryRow) toEntity() (*entity.Inquiry, error) {
	inq := &entity.Inquiry{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Phone:           stringPtr(r.Phone),
		Message:         r.Message,
		SourceURL:       stringPtr(r.SourceURL),
		ConvertedToLead: r.ConvertedToLead,
		LeadID:          stringPtr(r.LeadID),
	}
	if err := inq.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inquiry row: %w", err)
	}
	return inq, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInquiry(s scanner) (*entity.Inquiry, error) {
	var row inquiryRow
	if err := s.Scan(
		&row.ID,
		&row.CreatedAt,
		&row.FirstName,
		&row.LastName,
		&row.Email,
		&row.Phone,
		&row.Message,
		&row.SourceURL,
		&row.ConvertedToLead,
		&row.LeadID,
	); err != nil {
		return nil, err
	}
	return row.toEntity()
}

type InquiryRepository struct {
	DB *sql.DB
}

func NewInquiryRepository(db *sql.DB) *InquiryRepository {
	return &InquiryRepository{DB: db}
}

func (r *InquiryRepository) Create(ctx context.Context, inq *entity.Inquiry) error {
	query := `
		INSERT INTO inquiries (id, created_at, first_name, last_name, email, phone, message, source_url, converted_to_lead, lead_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query,
		inq.ID,
		inq.CreatedAt,
		inq.FirstName,
		inq.LastName,
		inq.Email,
		nullString(inq.Phone),
		inq.Message,
		nullString(inq.SourceURL),
		inq.ConvertedToLead,
		nullString(inq.LeadID),
	)
	return mapError(err)
}

func (r *InquiryRepository) List(ctx context.Context) ([]*entity.Inquiry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries ORDER BY created_at DESC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*entity.Inquiry
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inq)
	}
	return out, rows.Err()
}

func (r *InquiryRepository) FindByID(ctx context.Context, id string) (*entity.Inquiry, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+inquiryColumns+` FROM inquiries WHERE id = $1`, id)
	inq, err := scanInquiry(row)
	if err != nil {
		return nil, mapError(err)
	}
	return inq, nil
}

func (r *InquiryRepository) MarkConverted(ctx context.Context, id, leadID string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE inquiries SET converted_to_lead = TRUE, lead_id = $2 WHERE id = $1`,
		id, leadID,
	)
	return expectOne(res, err)
}

func (r *InquiryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	return expectOne(res, err)
}
