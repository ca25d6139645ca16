package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/infra/queue"
)

type QueueProducerInterface interface {
	PublishInquiryCreated(ctx context.Context, payload queue.InquiryCreatedPayload) error
}

type CreateInquiryUseCase struct {
	Repo   entity.InquiryRepositoryInterface
	Queue  QueueProducerInterface
	Logger *zap.Logger
}

// ConversionPolicy decides what happens when the lead was created but the
// inquiry could not be marked as converted.
type ConversionPolicy string

const (
	// KeepOrphanLead leaves the lead in place; the next reload shows it
	// without a back-reference from its inquiry.
	KeepOrphanLead ConversionPolicy = "keep"
	// CompensateLead deletes the freshly created lead.
	CompensateLead ConversionPolicy = "compensate"
)

func ParseConversionPolicy(s string) ConversionPolicy {
	if ConversionPolicy(s) == CompensateLead {
		return CompensateLead
	}
	return KeepOrphanLead
}

type ConvertInquiryUseCase struct {
	Inquiries entity.InquiryRepositoryInterface
	Leads     entity.LeadRepositoryInterface
	Policy    ConversionPolicy
	Logger    *zap.Logger
}
