package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Inquiry is a contact-form submission from a public visitor.
type Inquiry struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone"`
	Message         string    `json:"message"`
	SourceURL       *string   `json:"source_url"`
	ConvertedToLead bool      `json:"converted_to_lead"`
	LeadID          *string   `json:"lead_id"`
}

func NewInquiry(firstName, lastName, email string, phone *string, message string, sourceURL *string) *Inquiry {
	return &Inquiry{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		Message:   message,
		SourceURL: sourceURL,
	}
}

// Validate checks the shape of a row read back from the store.
func (i *Inquiry) Validate() error {
	if i.ID == "" {
		return errors.New("inquiry: id is required")
	}
	if i.Email == "" {
		return errors.New("inquiry: email is required")
	}
	if i.CreatedAt.IsZero() {
		return errors.New("inquiry: created_at is required")
	}
	return nil
}

func (i *Inquiry) HasLead() bool {
	return i.LeadID != nil && *i.LeadID != ""
}

type InquiryRepositoryInterface interface {
	Create(ctx context.Context, inquiry *Inquiry) error
	// List returns every inquiry, newest first.
	List(ctx context.Context) ([]*Inquiry, error)
	FindByID(ctx context.Context, id string) (*Inquiry, error)
	MarkConverted(ctx context.Context, id, leadID string) error
	Delete(ctx context.Context, id string) error
}
