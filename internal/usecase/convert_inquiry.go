package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

var ErrNoStages = &DomainError{
	Code:    CodeNoStages,
	Message: "No CRM stages found. Add a stage first.",
}

func NewConvertInquiryUseCase(
	inquiries entity.InquiryRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	policy ConversionPolicy,
	logger *zap.Logger,
) *ConvertInquiryUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConvertInquiryUseCase{
		Inquiries: inquiries,
		Leads:     leads,
		Policy:    policy,
		Logger:    logger,
	}
}

// SelectDestinationStage picks the stage named "New Lead" (any case) and
// falls back to the lowest position. It returns nil when there are no stages.
func SelectDestinationStage(stages []*entity.Stage) *entity.Stage {
	var lowest *entity.Stage
	for _, s := range stages {
		if s.IsDefault() {
			return s
		}
		if lowest == nil || s.Position < lowest.Position {
			lowest = s
		}
	}
	return lowest
}

// Execute creates a lead from the inquiry and then marks the inquiry as
// converted. The two writes are sequential; what happens when the second one
// fails depends on uc.Policy.
func (uc *ConvertInquiryUseCase) Execute(ctx context.Context, inquiry *entity.Inquiry, stages []*entity.Stage) (*ConvertInquiryOutput, error) {
	if inquiry == nil {
		return nil, &DomainError{Code: CodeNotFound, Message: "Inquiry not found."}
	}

	stage := SelectDestinationStage(stages)
	if stage == nil {
		return nil, ErrNoStages
	}

	lead := entity.NewLeadFromInquiry(stage.ID, inquiry)
	leadCreated := false

	txn := NewTransaction(uc.Logger)
	txn.AddOperation("create_lead", func(ctx context.Context) error {
		if err := uc.Leads.Create(ctx, lead); err != nil {
			return err
		}
		leadCreated = true
		return nil
	})
	if uc.Policy == CompensateLead {
		txn.AddCompensation("delete_lead", func(ctx context.Context) error {
			return uc.Leads.Delete(ctx, lead.ID)
		})
	}
	txn.AddOperation("mark_inquiry_converted", func(ctx context.Context) error {
		return uc.Inquiries.MarkConverted(ctx, inquiry.ID, lead.ID)
	})

	if err := txn.Execute(ctx); err != nil {
		if !leadCreated {
			return nil, &TechnicalError{Code: CodeDatabase, Message: errors.Unwrap(err).Error(), Err: err}
		}
		uc.Logger.Error("inquiry conversion incomplete",
			zap.String("inquiry_id", inquiry.ID),
			zap.String("lead_id", lead.ID),
			zap.String("policy", string(uc.Policy)),
			zap.Error(err),
		)
		return nil, &TechnicalError{
			Code:    CodeConversion,
			Message: fmt.Sprintf("lead created but inquiry not marked as converted: %v", errors.Unwrap(err)),
			Err:     err,
		}
	}

	uc.Logger.Info("inquiry converted",
		zap.String("inquiry_id", inquiry.ID),
		zap.String("lead_id", lead.ID),
		zap.String("stage_id", stage.ID),
	)

	return &ConvertInquiryOutput{LeadID: lead.ID, StageID: stage.ID}, nil
}
