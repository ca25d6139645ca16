// Package board is the admin's working copy of the CRM: inquiries, stages
// and leads held in memory per admin session, mutated optimistically and
// reconciled against the store by full reloads.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/usecase"
)

var ErrBusy = errors.New("another board operation is in progress")

type Repositories struct {
	Inquiries entity.InquiryRepositoryInterface
	Stages    entity.StageRepositoryInterface
	Leads     entity.LeadRepositoryInterface
}

type Options struct {
	Logger *zap.Logger
	Now    func() time.Time
	// OnDropSettled is called once per drop that reached the store.
	OnDropSettled func(ActionState)
}

type Board struct {
	repos   Repositories
	convert *usecase.ConvertInquiryUseCase
	logger  *zap.Logger
	now     func() time.Time
	settled func(ActionState)

	mu        sync.Mutex
	inquiries []*entity.Inquiry
	stages    []*entity.Stage
	leads     []*entity.Lead
	dragID    string
	busy      bool
	loading   int
	errMsg    string
	loadSeq   uint64
	appliedSq uint64
	loadedAt  time.Time

	writes sync.WaitGroup
}

func New(repos Repositories, convert *usecase.ConvertInquiryUseCase, opts Options) *Board {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Board{
		repos:   repos,
		convert: convert,
		logger:  opts.Logger,
		now:     opts.Now,
		settled: opts.OnDropSettled,
	}
}

// Column is one stage with the leads currently in it.
type Column struct {
	Stage entity.Stage  `json:"stage"`
	Leads []entity.Lead `json:"leads"`
}

// Snapshot is a point-in-time copy of the board, safe to hand out.
type Snapshot struct {
	Inquiries    []entity.Inquiry `json:"inquiries"`
	Stages       []entity.Stage   `json:"stages"`
	Leads        []entity.Lead    `json:"leads"`
	Columns      []Column         `json:"columns"`
	ActiveDragID string           `json:"active_drag_id,omitempty"`
	Busy         bool             `json:"busy"`
	Loading      bool             `json:"loading"`
	Error        string           `json:"error,omitempty"`
	LoadedAt     time.Time        `json:"loaded_at"`
}

func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		Inquiries:    make([]entity.Inquiry, 0, len(b.inquiries)),
		Stages:       make([]entity.Stage, 0, len(b.stages)),
		Leads:        make([]entity.Lead, 0, len(b.leads)),
		Columns:      groupByStage(b.stages, b.leads),
		ActiveDragID: b.dragID,
		Busy:         b.busy,
		Loading:      b.loading > 0,
		Error:        b.errMsg,
		LoadedAt:     b.loadedAt,
	}
	for _, inq := range b.inquiries {
		s.Inquiries = append(s.Inquiries, *inq)
	}
	for _, st := range b.stages {
		s.Stages = append(s.Stages, *st)
	}
	for _, l := range b.leads {
		s.Leads = append(s.Leads, *l)
	}
	return s
}

// LeadsByStage groups the cached leads under every stage, in stage order.
// Empty stages are present with no leads; intra-stage order is fetch order.
func (b *Board) LeadsByStage() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()
	return groupByStage(b.stages, b.leads)
}

func groupByStage(stages []*entity.Stage, leads []*entity.Lead) []Column {
	idx := make(map[string]int, len(stages))
	cols := make([]Column, len(stages))
	for i, st := range stages {
		idx[st.ID] = i
		cols[i] = Column{Stage: *st, Leads: []entity.Lead{}}
	}
	for _, l := range leads {
		if i, ok := idx[l.StageID]; ok {
			cols[i].Leads = append(cols[i].Leads, *l)
		}
	}
	return cols
}

func (b *Board) Error() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errMsg
}

// Refresh reloads the whole cache. On any read failure the previous cache
// is kept and the error slot is set.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.errMsg = ""
	b.mu.Unlock()
	return b.reload(ctx)
}

func (b *Board) reload(ctx context.Context) error {
	b.mu.Lock()
	b.loadSeq++
	seq := b.loadSeq
	b.loading++
	b.mu.Unlock()

	var (
		inquiries []*entity.Inquiry
		stages    []*entity.Stage
		leads     []*entity.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		inquiries, err = b.repos.Inquiries.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		stages, err = b.repos.Stages.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		leads, err = b.repos.Leads.List(gctx)
		return err
	})
	err := g.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading--

	if err != nil {
		b.errMsg = message(err)
		b.logger.Error("board reload failed", zap.Error(err))
		return err
	}
	// A slower, older reload must not overwrite a newer one.
	if seq < b.appliedSq {
		return nil
	}
	b.appliedSq = seq
	b.inquiries = inquiries
	b.stages = stages
	b.leads = leads
	b.loadedAt = b.now()
	return nil
}

// run guards a CRUD operation with the busy flag and the shared error slot.
func (b *Board) run(op string, fn func() error) error {
	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		return ErrBusy
	}
	b.busy = true
	b.errMsg = ""
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	b.busy = false
	if err != nil {
		b.errMsg = message(err)
	}
	b.mu.Unlock()

	if err != nil {
		b.logger.Warn("board operation failed", zap.String("op", op), zap.Error(err))
	} else {
		b.logger.Debug("board operation", zap.String("op", op))
	}
	return err
}

// Wait blocks until every in-flight drop write and its reconciliation end.
func (b *Board) Wait() {
	b.writes.Wait()
}

func message(err error) string {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func (b *Board) findLead(id string) (int, *entity.Lead) {
	for i, l := range b.leads {
		if l.ID == id {
			return i, l
		}
	}
	return -1, nil
}

func (b *Board) findStage(id string) *entity.Stage {
	for _, s := range b.stages {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (b *Board) findInquiry(id string) *entity.Inquiry {
	for _, inq := range b.inquiries {
		if inq.ID == id {
			return inq
		}
	}
	return nil
}
