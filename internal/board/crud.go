package board

import (
	"context"
	"errors"
	"strings"

	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/usecase"
)

var (
	ErrStageNameRequired = &usecase.DomainError{Code: usecase.CodeValidation, Message: "Stage name is required."}
	ErrLeadNameRequired  = &usecase.DomainError{Code: usecase.CodeValidation, Message: "First name and last name are required."}
	ErrStageHasLeads     = &usecase.DomainError{Code: usecase.CodeValidation, Message: "Move leads out of this stage before deleting it."}
	ErrNoStagesForLead   = &usecase.DomainError{Code: usecase.CodeNoStages, Message: "No CRM stages found."}
	ErrLeadNotFound      = &usecase.DomainError{Code: usecase.CodeNotFound, Message: "Lead not found."}
	ErrInquiryNotFound   = &usecase.DomainError{Code: usecase.CodeNotFound, Message: "Inquiry not found."}
)

// AddStage appends a stage after the current last one.
func (b *Board) AddStage(ctx context.Context, name string) error {
	return b.run("add_stage", func() error {
		name = strings.TrimSpace(name)
		if name == "" {
			return ErrStageNameRequired
		}

		b.mu.Lock()
		position := 1
		if n := len(b.stages); n > 0 {
			position = b.stages[n-1].Position + 1
		}
		b.mu.Unlock()

		if _, err := b.repos.Stages.Create(ctx, name, position); err != nil {
			return err
		}
		return b.reload(ctx)
	})
}

func (b *Board) RenameStage(ctx context.Context, id, name string) error {
	return b.run("rename_stage", func() error {
		name = strings.TrimSpace(name)
		if name == "" {
			return ErrStageNameRequired
		}
		if err := b.repos.Stages.Rename(ctx, id, name); err != nil {
			return err
		}
		return b.reload(ctx)
	})
}

// DeleteStage refuses, without touching the store, while any cached lead
// still sits in the stage.
func (b *Board) DeleteStage(ctx context.Context, id string) error {
	return b.run("delete_stage", func() error {
		b.mu.Lock()
		inUse := false
		for _, l := range b.leads {
			if l.StageID == id {
				inUse = true
				break
			}
		}
		b.mu.Unlock()
		if inUse {
			return ErrStageHasLeads
		}

		if err := b.repos.Stages.Delete(ctx, id); err != nil {
			if errors.Is(err, entity.ErrStageInUse) {
				return ErrStageHasLeads
			}
			return err
		}
		return b.reload(ctx)
	})
}

// CreateLead adds a manual lead to the default stage.
func (b *Board) CreateLead(ctx context.Context, fields entity.LeadFields) error {
	return b.run("create_lead", func() error {
		fields = fields.Normalize()
		if fields.FirstName == "" || fields.LastName == "" {
			return ErrLeadNameRequired
		}

		b.mu.Lock()
		stage := usecase.SelectDestinationStage(b.stages)
		b.mu.Unlock()
		if stage == nil {
			return ErrNoStagesForLead
		}

		if err := b.repos.Leads.Create(ctx, entity.NewLead(stage.ID, nil, fields)); err != nil {
			return err
		}
		return b.reload(ctx)
	})
}

// UpdateLead saves the editable fields and patches the cached copy.
func (b *Board) UpdateLead(ctx context.Context, id string, fields entity.LeadFields) error {
	return b.run("update_lead", func() error {
		fields = fields.Normalize()
		if fields.FirstName == "" || fields.LastName == "" {
			return ErrLeadNameRequired
		}
		if err := b.repos.Leads.Update(ctx, id, fields); err != nil {
			return err
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if i, l := b.findLead(id); l != nil {
			updated := *l
			updated.Apply(fields)
			b.leads[i] = &updated
		}
		return nil
	})
}

// DeleteLead removes the lead and, from the local view, the inquiries
// linked to it in either direction. The lead need not be cached: one hidden
// by DeleteInquiry can still be deleted by id.
func (b *Board) DeleteLead(ctx context.Context, id string) error {
	return b.run("delete_lead", func() error {
		if err := b.repos.Leads.Delete(ctx, id); err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				return ErrLeadNotFound
			}
			return err
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		var originID string
		if _, l := b.findLead(id); l != nil && l.InquiryID != nil {
			originID = *l.InquiryID
		}
		b.leads = filterLeads(b.leads, func(l *entity.Lead) bool { return l.ID != id })
		b.inquiries = filterInquiries(b.inquiries, func(i *entity.Inquiry) bool {
			linkedBack := originID != "" && i.ID == originID
			linkedFwd := i.LeadID != nil && *i.LeadID == id
			return !linkedBack && !linkedFwd
		})
		return nil
	})
}

// ConvertInquiry turns a cached inquiry into a lead, then reloads.
func (b *Board) ConvertInquiry(ctx context.Context, id string) (*usecase.ConvertInquiryOutput, error) {
	var out *usecase.ConvertInquiryOutput
	err := b.run("convert_inquiry", func() error {
		b.mu.Lock()
		inq := b.findInquiry(id)
		stages := append([]*entity.Stage(nil), b.stages...)
		b.mu.Unlock()
		if inq == nil {
			return ErrInquiryNotFound
		}

		res, err := b.convert.Execute(ctx, inq, stages)
		if err != nil {
			return err
		}
		out = res
		return b.reload(ctx)
	})
	return out, err
}

// DeleteInquiry deletes the inquiry. A lead it produced stays in the store
// and is only hidden from this board until the next reload.
func (b *Board) DeleteInquiry(ctx context.Context, id string) error {
	return b.run("delete_inquiry", func() error {
		b.mu.Lock()
		cached := b.findInquiry(id)
		b.mu.Unlock()
		if cached == nil {
			return ErrInquiryNotFound
		}
		inq := *cached

		if err := b.repos.Inquiries.Delete(ctx, id); err != nil {
			return err
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		b.inquiries = filterInquiries(b.inquiries, func(i *entity.Inquiry) bool { return i.ID != id })
		if inq.HasLead() {
			b.leads = filterLeads(b.leads, func(l *entity.Lead) bool { return l.ID != *inq.LeadID })
		}
		return nil
	})
}

func filterLeads(in []*entity.Lead, keep func(*entity.Lead) bool) []*entity.Lead {
	out := make([]*entity.Lead, 0, len(in))
	for _, l := range in {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func filterInquiries(in []*entity.Inquiry, keep func(*entity.Inquiry) bool) []*entity.Inquiry {
	out := make([]*entity.Inquiry, 0, len(in))
	for _, i := range in {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}
