// Package memory holds the collaborator tables in process memory, for local
// runs without Postgres and for tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/xavierca1/ontriq-site/internal/entity"
)

var ErrUnknownStage = errors.New("stage does not exist")

// Store keeps every table behind one lock so cross-table checks stay
// consistent, the way foreign keys do in Postgres.
type Store struct {
	mu sync.RWMutex

	inquiries map[string]entity.Inquiry
	stages    map[string]entity.Stage
	leads     map[string]entity.Lead
	users     map[string]entity.User // keyed by email
	profiles  map[string]entity.Profile
}

func NewStore() *Store {
	return &Store{
		inquiries: map[string]entity.Inquiry{},
		stages:    map[string]entity.Stage{},
		leads:     map[string]entity.Lead{},
		users:     map[string]entity.User{},
		profiles:  map[string]entity.Profile{},
	}
}

// SeedStages inserts the given stage names at positions 0..n-1.
func (s *Store) SeedStages(names ...string) []*entity.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entity.Stage, 0, len(names))
	for i, name := range names {
		st := entity.Stage{ID: uuid.New().String(), Name: name, Position: i}
		s.stages[st.ID] = st
		out = append(out, &st)
	}
	return out
}

func (s *Store) Inquiries() *InquiryRepo { return &InquiryRepo{s: s} }
func (s *Store) Stages() *StageRepo     { return &StageRepo{s: s} }
func (s *Store) Leads() *LeadRepo       { return &LeadRepo{s: s} }
func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }

// ---- inquiries ----

type InquiryRepo struct{ s *Store }

func (r *InquiryRepo) Create(_ context.Context, inq *entity.Inquiry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.inquiries[inq.ID] = *inq
	return nil
}

func (r *InquiryRepo) List(_ context.Context) ([]*entity.Inquiry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Inquiry, 0, len(r.s.inquiries))
	for _, inq := range r.s.inquiries {
		v := inq
		out = append(out, &v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *InquiryRepo) FindByID(_ context.Context, id string) (*entity.Inquiry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inq, ok := r.s.inquiries[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &inq, nil
}

func (r *InquiryRepo) MarkConverted(_ context.Context, id, leadID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inq, ok := r.s.inquiries[id]
	if !ok {
		return entity.ErrNotFound
	}
	inq.ConvertedToLead = true
	inq.LeadID = &leadID
	r.s.inquiries[id] = inq
	return nil
}

func (r *InquiryRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.inquiries[id]; !ok {
		return entity.ErrNotFound
	}
	delete(r.s.inquiries, id)
	// inquiry_id is ON DELETE SET NULL.
	for lid, l := range r.s.leads {
		if l.InquiryID != nil && *l.InquiryID == id {
			l.InquiryID = nil
			r.s.leads[lid] = l
		}
	}
	return nil
}

// ---- stages ----

type StageRepo struct{ s *Store }

func (r *StageRepo) List(_ context.Context) ([]*entity.Stage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Stage, 0, len(r.s.stages))
	for _, st := range r.s.stages {
		v := st
		out = append(out, &v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *StageRepo) Create(_ context.Context, name string, position int) (*entity.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st := entity.Stage{ID: uuid.New().String(), Name: name, Position: position}
	r.s.stages[st.ID] = st
	return &st, nil
}

func (r *StageRepo) Rename(_ context.Context, id, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stages[id]
	if !ok {
		return entity.ErrNotFound
	}
	st.Name = name
	r.s.stages[id] = st
	return nil
}

func (r *StageRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stages[id]; !ok {
		return entity.ErrNotFound
	}
	for _, l := range r.s.leads {
		if l.StageID == id {
			return entity.ErrStageInUse
		}
	}
	delete(r.s.stages, id)
	return nil
}

// ---- leads ----

type LeadRepo struct{ s *Store }

func (r *LeadRepo) List(_ context.Context) ([]*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Lead, 0, len(r.s.leads))
	for _, l := range r.s.leads {
		v := l
		out = append(out, &v)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *LeadRepo) Create(_ context.Context, l *entity.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stages[l.StageID]; !ok {
		return ErrUnknownStage
	}
	r.s.leads[l.ID] = *l
	return nil
}

func (r *LeadRepo) Update(_ context.Context, id string, f entity.LeadFields) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return entity.ErrNotFound
	}
	l.Apply(f)
	r.s.leads[id] = l
	return nil
}

func (r *LeadRepo) UpdateStage(_ context.Context, id, stageID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.leads[id]
	if !ok {
		return entity.ErrNotFound
	}
	if _, ok := r.s.stages[stageID]; !ok {
		return ErrUnknownStage
	}
	l.StageID = stageID
	r.s.leads[id] = l
	return nil
}

func (r *LeadRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.leads[id]; !ok {
		return entity.ErrNotFound
	}
	delete(r.s.leads, id)
	for key, inq := range r.s.inquiries {
		if inq.LeadID != nil && *inq.LeadID == id {
			inq.LeadID = nil
			inq.ConvertedToLead = false
			r.s.inquiries[key] = inq
		}
	}
	return nil
}

// ---- users / profiles ----

type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *entity.User, isAdmin bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.Email]; ok {
		return entity.ErrEmailAlreadyExists
	}
	r.s.users[u.Email] = *u
	r.s.profiles[u.ID] = entity.Profile{ID: u.ID, IsAdmin: isAdmin}
	return nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[normalizeEmail(email)]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*entity.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &p, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
