package usecase

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/infra/queue"
)

func NewCreateInquiryUseCase(
	repo entity.InquiryRepositoryInterface,
	producer QueueProducerInterface,
	logger *zap.Logger,
) *CreateInquiryUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateInquiryUseCase{
		Repo:   repo,
		Queue:  producer,
		Logger: logger,
	}
}

func (uc *CreateInquiryUseCase) Execute(ctx context.Context, input CreateInquiryInput) (*CreateInquiryOutput, error) {
	if err := ValidationErrors(ValidateCreateInquiryInput(input)); err != nil {
		return nil, err
	}

	inquiry := entity.NewInquiry(
		strings.TrimSpace(input.FirstName),
		strings.TrimSpace(input.LastName),
		strings.TrimSpace(input.Email),
		optional(input.Phone),
		input.Message,
		optional(input.SourceURL),
	)

	if err := uc.Repo.Create(ctx, inquiry); err != nil {
		return nil, &TechnicalError{
			Code:    CodeDatabase,
			Message: err.Error(),
			Err:     err,
		}
	}

	uc.Logger.Info("inquiry received",
		zap.String("inquiry_id", inquiry.ID),
		zap.Bool("has_source_url", inquiry.SourceURL != nil),
	)

	if uc.Queue != nil {
		payload := queue.InquiryCreatedPayload{
			InquiryID: inquiry.ID,
			FirstName: inquiry.FirstName,
			LastName:  inquiry.LastName,
			Email:     inquiry.Email,
			Phone:     deref(inquiry.Phone),
			Message:   inquiry.Message,
			SourceURL: deref(inquiry.SourceURL),
			CreatedAt: inquiry.CreatedAt,
		}
		// The inquiry is already stored; a lost notification is not a client error.
		if err := uc.Queue.PublishInquiryCreated(ctx, payload); err != nil {
			uc.Logger.Error("inquiry stored but notification publish failed",
				zap.String("inquiry_id", inquiry.ID),
				zap.Error(err),
			)
		}
	}

	return &CreateInquiryOutput{ID: inquiry.ID}, nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
