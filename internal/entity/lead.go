package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is a pipeline-tracked prospect. It always sits in exactly one stage.
type Lead struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	StageID   string    `json:"stage_id"`
	InquiryID *string   `json:"inquiry_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Company   *string   `json:"company"`
	Notes     *string   `json:"notes"`
}

// LeadFields are the admin-editable columns of a lead.
type LeadFields struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	Notes     *string `json:"notes"`
}

// Normalize trims every field and turns blank optional values into nil.
func (f LeadFields) Normalize() LeadFields {
	return LeadFields{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     blankToNil(f.Email),
		Phone:     blankToNil(f.Phone),
		Company:   blankToNil(f.Company),
		Notes:     blankToNil(f.Notes),
	}
}

func NewLead(stageID string, inquiryID *string, fields LeadFields) *Lead {
	return &Lead{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		StageID:   stageID,
		InquiryID: inquiryID,
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		Email:     fields.Email,
		Phone:     fields.Phone,
		Company:   fields.Company,
		Notes:     fields.Notes,
	}
}

// NewLeadFromInquiry copies the contact details and puts the message in notes.
func NewLeadFromInquiry(stageID string, inq *Inquiry) *Lead {
	inquiryID := inq.ID
	email := inq.Email
	message := inq.Message
	return NewLead(stageID, &inquiryID, LeadFields{
		FirstName: inq.FirstName,
		LastName:  inq.LastName,
		Email:     &email,
		Phone:     inq.Phone,
		Notes:     &message,
	})
}

func (l *Lead) Validate() error {
	if l.ID == "" {
		return errors.New("lead: id is required")
	}
	if l.StageID == "" {
		return errors.New("lead: stage_id is required")
	}
	return nil
}

func (l *Lead) Apply(f LeadFields) {
	l.FirstName = f.FirstName
	l.LastName = f.LastName
	l.Email = f.Email
	l.Phone = f.Phone
	l.Company = f.Company
	l.Notes = f.Notes
}

type LeadRepositoryInterface interface {
	// List returns every lead, newest first.
	List(ctx context.Context) ([]*Lead, error)
	Create(ctx context.Context, lead *Lead) error
	Update(ctx context.Context, id string, fields LeadFields) error
	UpdateStage(ctx context.Context, id, stageID string) error
	Delete(ctx context.Context, id string) error
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
