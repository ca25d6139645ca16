package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/infra/memory"
	"github.com/xavierca1/ontriq-site/internal/usecase"
)

// scriptedLeads serves reads from the memory store and lets a test script
// the outcome of stage moves.
type scriptedLeads struct {
	*memory.LeadRepo
	mock.Mock
	passthrough bool
}

func (s *scriptedLeads) UpdateStage(ctx context.Context, id, stageID string) error {
	if s.passthrough {
		return s.LeadRepo.UpdateStage(ctx, id, stageID)
	}
	args := s.Called(ctx, id, stageID)
	if err := args.Error(0); err != nil {
		return err
	}
	return s.LeadRepo.UpdateStage(ctx, id, stageID)
}

type fixture struct {
	store  *memory.Store
	leads  *scriptedLeads
	board  *Board
	stages []*entity.Stage
}

func newFixture(t *testing.T, stageNames ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	stages := store.SeedStages(stageNames...)
	leads := &scriptedLeads{LeadRepo: store.Leads(), passthrough: true}
	convert := usecase.NewConvertInquiryUseCase(store.Inquiries(), leads, usecase.KeepOrphanLead, nil)
	b := New(Repositories{
		Inquiries: store.Inquiries(),
		Stages:    store.Stages(),
		Leads:     leads,
	}, convert, Options{})
	return &fixture{store: store, leads: leads, board: b, stages: stages}
}

func (f *fixture) addLead(t *testing.T, stageID, first string, age time.Duration) *entity.Lead {
	t.Helper()
	l := entity.NewLead(stageID, nil, entity.LeadFields{FirstName: first, LastName: "Test"})
	l.CreatedAt = time.Now().Add(-age)
	require.NoError(t, f.store.Leads().Create(context.Background(), l))
	return l
}

func (f *fixture) addInquiry(t *testing.T, first string, age time.Duration) *entity.Inquiry {
	t.Helper()
	phone := "+94 11 000 0000"
	inq := entity.NewInquiry(first, "Perera", first+"@example.com", &phone, "Need BGV for 20 hires", nil)
	inq.CreatedAt = time.Now().Add(-age)
	require.NoError(t, f.store.Inquiries().Create(context.Background(), inq))
	return inq
}

func stageOf(t *testing.T, b *Board, leadID string) string {
	t.Helper()
	for _, l := range b.Snapshot().Leads {
		if l.ID == leadID {
			return l.StageID
		}
	}
	t.Fatalf("lead %s not on board", leadID)
	return ""
}

func TestRefreshGroupsEveryStageInFetchOrder(t *testing.T) {
	f := newFixture(t, "New Lead", "Contacted", "Won")
	older := f.addLead(t, f.stages[0].ID, "Older", 2*time.Hour)
	newer := f.addLead(t, f.stages[0].ID, "Newer", time.Hour)
	f.addLead(t, f.stages[1].ID, "Other", 0)

	require.NoError(t, f.board.Refresh(context.Background()))

	cols := f.board.LeadsByStage()
	require.Len(t, cols, 3)
	assert.Equal(t, "New Lead", cols[0].Stage.Name)
	require.Len(t, cols[0].Leads, 2)
	assert.Equal(t, newer.ID, cols[0].Leads[0].ID)
	assert.Equal(t, older.ID, cols[0].Leads[1].ID)
	assert.Len(t, cols[1].Leads, 1)
	assert.NotNil(t, cols[2].Leads)
	assert.Empty(t, cols[2].Leads)
}

type failingStages struct {
	entity.StageRepositoryInterface
	err error
}

func (f failingStages) List(context.Context) ([]*entity.Stage, error) { return nil, f.err }

func TestRefreshFailureKeepsPreviousCache(t *testing.T) {
	f := newFixture(t, "New Lead")
	f.addLead(t, f.stages[0].ID, "Ada", 0)
	require.NoError(t, f.board.Refresh(context.Background()))

	f.board.repos.Stages = failingStages{StageRepositoryInterface: f.store.Stages(), err: errors.New("connection reset")}
	err := f.board.Refresh(context.Background())

	assert.EqualError(t, err, "connection reset")
	snap := f.board.Snapshot()
	assert.Equal(t, "connection reset", snap.Error)
	assert.Len(t, snap.Stages, 1)
	assert.Len(t, snap.Leads, 1)
}

func TestBeginDragNeedsActivationDistance(t *testing.T) {
	f := newFixture(t, "New Lead")
	l := f.addLead(t, f.stages[0].ID, "Ada", 0)
	require.NoError(t, f.board.Refresh(context.Background()))

	assert.ErrorIs(t, f.board.BeginDrag(l.ID, 5.9), ErrBelowActivation)
	assert.Empty(t, f.board.Snapshot().ActiveDragID)

	require.NoError(t, f.board.BeginDrag(l.ID, 6))
	assert.Equal(t, l.ID, f.board.Snapshot().ActiveDragID)

	assert.ErrorIs(t, f.board.BeginDrag("ghost", 10), ErrUnknownLead)
}

func TestDropOnCardOrSameStageIsNoop(t *testing.T) {
	f := newFixture(t, "New Lead", "Won")
	a := f.addLead(t, f.stages[0].ID, "Ada", 0)
	b := f.addLead(t, f.stages[1].ID, "Bob", 0)
	f.leads.passthrough = false
	require.NoError(t, f.board.Refresh(context.Background()))
	require.NoError(t, f.board.BeginDrag(a.ID, 20))

	for _, over := range []string{b.ID, f.stages[0].ID, ""} {
		act := f.board.Drop(context.Background(), a.ID, over)
		state, err := act.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ActionIdle, state, "over=%q", over)
	}

	assert.Empty(t, f.board.Snapshot().ActiveDragID)
	assert.Equal(t, f.stages[0].ID, stageOf(t, f.board, a.ID))
	f.leads.AssertNotCalled(t, "UpdateStage", mock.Anything, mock.Anything, mock.Anything)
}

func TestDropAppliesOptimisticallyThenConfirms(t *testing.T) {
	f := newFixture(t, "New Lead", "Won")
	l := f.addLead(t, f.stages[0].ID, "Ada", 0)
	f.leads.passthrough = false
	require.NoError(t, f.board.Refresh(context.Background()))

	release := make(chan struct{})
	f.leads.On("UpdateStage", mock.Anything, l.ID, f.stages[1].ID).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).Once()

	act := f.board.Drop(context.Background(), l.ID, f.stages[1].ID)

	assert.Equal(t, ActionOptimistic, act.State())
	assert.Equal(t, f.stages[1].ID, stageOf(t, f.board, l.ID))

	close(release)
	state, err := act.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionConfirmed, state)
	assert.NoError(t, act.Err())
	assert.Empty(t, f.board.Error())

	stored, err := f.store.Leads().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.stages[1].ID, stored[0].StageID)
	f.leads.AssertNumberOfCalls(t, "UpdateStage", 1)
}

func TestDropFailureReconcilesByFullReload(t *testing.T) {
	f := newFixture(t, "New Lead", "Won")
	l := f.addLead(t, f.stages[0].ID, "Ada", 0)
	f.leads.passthrough = false
	require.NoError(t, f.board.Refresh(context.Background()))

	var settled []ActionState
	var mu sync.Mutex
	f.board.settled = func(s ActionState) {
		mu.Lock()
		settled = append(settled, s)
		mu.Unlock()
	}

	f.leads.On("UpdateStage", mock.Anything, l.ID, f.stages[1].ID).
		Return(errors.New("permission denied for table crm_leads")).Once()

	act := f.board.Drop(context.Background(), l.ID, f.stages[1].ID)
	state, err := act.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ActionReconciling, state)
	assert.EqualError(t, act.Err(), "permission denied for table crm_leads")
	assert.Equal(t, "permission denied for table crm_leads", f.board.Error())
	assert.Equal(t, f.stages[0].ID, stageOf(t, f.board, l.ID))

	mu.Lock()
	assert.Equal(t, []ActionState{ActionReconciling}, settled)
	mu.Unlock()
}

func TestRapidDropsAreIndependent(t *testing.T) {
	f := newFixture(t, "New Lead", "Contacted", "Won")
	a := f.addLead(t, f.stages[0].ID, "Ada", 0)
	b := f.addLead(t, f.stages[0].ID, "Bob", 0)
	require.NoError(t, f.board.Refresh(context.Background()))

	actA := f.board.Drop(context.Background(), a.ID, f.stages[1].ID)
	actB := f.board.Drop(context.Background(), b.ID, f.stages[2].ID)
	f.board.Wait()

	assert.Equal(t, ActionConfirmed, actA.State())
	assert.Equal(t, ActionConfirmed, actB.State())
	assert.Equal(t, f.stages[1].ID, stageOf(t, f.board, a.ID))
	assert.Equal(t, f.stages[2].ID, stageOf(t, f.board, b.ID))
}

func TestAddStageAppendsAfterLastPosition(t *testing.T) {
	f := newFixture(t, "New Lead", "Won")
	require.NoError(t, f.board.Refresh(context.Background()))

	err := f.board.AddStage(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrStageNameRequired)
	assert.Equal(t, "Stage name is required.", f.board.Error())

	require.NoError(t, f.board.AddStage(context.Background(), "  Negotiation "))
	stages := f.board.Snapshot().Stages
	require.Len(t, stages, 3)
	assert.Equal(t, "Negotiation", stages[2].Name)
	assert.Equal(t, 2, stages[2].Position)
	assert.Empty(t, f.board.Error())
}

func TestAddStageOnEmptyBoardStartsAtOne(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.board.Refresh(context.Background()))
	require.NoError(t, f.board.AddStage(context.Background(), "New Lead"))
	assert.Equal(t, 1, f.board.Snapshot().Stages[0].Position)
}

func TestRenameStage(t *testing.T) {
	f := newFixture(t, "New Lead")
	require.NoError(t, f.board.Refresh(context.Background()))

	assert.ErrorIs(t, f.board.RenameStage(context.Background(), f.stages[0].ID, ""), ErrStageNameRequired)
	require.NoError(t, f.board.RenameStage(context.Background(), f.stages[0].ID, "Inbox"))
	assert.Equal(t, "Inbox", f.board.Snapshot().Stages[0].Name)
}

type countingStages struct {
	entity.StageRepositoryInterface
	deletes int
}

func (c *countingStages) Delete(ctx context.Context, id string) error {
	c.deletes++
	return c.StageRepositoryInterface.Delete(ctx, id)
}

func TestDeleteStageWithLeadsIsRejectedBeforeAnyWrite(t *testing.T) {
	f := newFixture(t, "New Lead", "Won")
	f.addLead(t, f.stages[0].ID, "Ada", 0)
	stages := &countingStages{StageRepositoryInterface: f.store.Stages()}
	f.board.repos.Stages = stages
	require.NoError(t, f.board.Refresh(context.Background()))

	err := f.board.DeleteStage(context.Background(), f.stages[0].ID)
	assert.ErrorIs(t, err, ErrStageHasLeads)
	assert.Equal(t, "Move leads out of this stage before deleting it.", f.board.Error())
	assert.Equal(t, 0, stages.deletes)

	require.NoError(t, f.board.DeleteStage(context.Background(), f.stages[1].ID))
	assert.Equal(t, 1, stages.deletes)
	assert.Len(t, f.board.Snapshot().Stages, 1)
}

func TestCreateLead(t *testing.T) {
	f := newFixture(t, "Contacted", "new LEAD")
	require.NoError(t, f.board.Refresh(context.Background()))

	err := f.board.CreateLead(context.Background(), entity.LeadFields{FirstName: "Ada", LastName: "  "})
	assert.ErrorIs(t, err, ErrLeadNameRequired)

	blank := " "
	require.NoError(t, f.board.CreateLead(context.Background(), entity.LeadFields{FirstName: " Ada ", LastName: "Lovelace", Email: &blank}))

	leads := f.board.Snapshot().Leads
	require.Len(t, leads, 1)
	assert.Equal(t, f.stages[1].ID, leads[0].StageID)
	assert.Equal(t, "Ada", leads[0].FirstName)
	assert.Nil(t, leads[0].Email)
	assert.Nil(t, leads[0].InquiryID)
}

func TestCreateLeadWithoutStages(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.board.Refresh(context.Background()))

	err := f.board.CreateLead(context.Background(), entity.LeadFields{FirstName: "Ada", LastName: "Lovelace"})
	assert.ErrorIs(t, err, ErrNoStagesForLead)
	assert.Equal(t, "No CRM stages found.", f.board.Error())
}

func TestUpdateLeadPatchesCache(t *testing.T) {
	f := newFixture(t, "New Lead")
	l := f.addLead(t, f.stages[0].ID, "Ada", 0)
	require.NoError(t, f.board.Refresh(context.Background()))

	company := " Ontriq "
	require.NoError(t, f.board.UpdateLead(context.Background(), l.ID, entity.LeadFields{
		FirstName: "Ada", LastName: "King", Company: &company,
	}))

	got := f.board.Snapshot().Leads[0]
	assert.Equal(t, "King", got.LastName)
	require.NotNil(t, got.Company)
	assert.Equal(t, "Ontriq", *got.Company)

	assert.ErrorIs(t, f.board.UpdateLead(context.Background(), l.ID, entity.LeadFields{FirstName: "Ada"}), ErrLeadNameRequired)
}

func TestConvertInquiryLandsInNewLeadStage(t *testing.T) {
	f := newFixture(t, "Contacted", "NEW LEAD", "Won")
	inq := f.addInquiry(t, "Nimal", 0)
	require.NoError(t, f.board.Refresh(context.Background()))

	out, err := f.board.ConvertInquiry(context.Background(), inq.ID)
	require.NoError(t, err)
	assert.Equal(t, f.stages[1].ID, out.StageID)

	snap := f.board.Snapshot()
	require.Len(t, snap.Leads, 1)
	lead := snap.Leads[0]
	assert.Equal(t, "Nimal", lead.FirstName)
	assert.Equal(t, "Need BGV for 20 hires", *lead.Notes)
	assert.Equal(t, inq.ID, *lead.InquiryID)
	require.Len(t, snap.Inquiries, 1)
	assert.True(t, snap.Inquiries[0].ConvertedToLead)
	assert.Equal(t, lead.ID, *snap.Inquiries[0].LeadID)
}

func TestConvertInquiryWithoutStagesCreatesNothing(t *testing.T) {
	f := newFixture(t)
	inq := f.addInquiry(t, "Nimal", 0)
	require.NoError(t, f.board.Refresh(context.Background()))

	_, err := f.board.ConvertInquiry(context.Background(), inq.ID)
	assert.ErrorIs(t, err, usecase.ErrNoStages)
	assert.Equal(t, "No CRM stages found. Add a stage first.", f.board.Error())

	leads, err := f.store.Leads().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestDeleteLeadDropsLinkedInquiriesFromView(t *testing.T) {
	f := newFixture(t, "New Lead")
	inq := f.addInquiry(t, "Nimal", time.Hour)
	other := f.addInquiry(t, "Kamal", 0)
	require.NoError(t, f.board.Refresh(context.Background()))
	out, err := f.board.ConvertInquiry(context.Background(), inq.ID)
	require.NoError(t, err)

	require.NoError(t, f.board.DeleteLead(context.Background(), out.LeadID))

	snap := f.board.Snapshot()
	assert.Empty(t, snap.Leads)
	require.Len(t, snap.Inquiries, 1)
	assert.Equal(t, other.ID, snap.Inquiries[0].ID)
}

func TestDeletedLeadReturnsInquiryToUnconvertedAfterRefresh(t *testing.T) {
	f := newFixture(t, "New Lead")
	inq := f.addInquiry(t, "Nimal", 0)
	require.NoError(t, f.board.Refresh(context.Background()))
	out, err := f.board.ConvertInquiry(context.Background(), inq.ID)
	require.NoError(t, err)

	require.NoError(t, f.board.DeleteLead(context.Background(), out.LeadID))
	require.NoError(t, f.board.Refresh(context.Background()))

	snap := f.board.Snapshot()
	assert.Empty(t, snap.Leads)
	require.Len(t, snap.Inquiries, 1)
	assert.False(t, snap.Inquiries[0].ConvertedToLead)
	assert.Nil(t, snap.Inquiries[0].LeadID)

	again, err := f.board.ConvertInquiry(context.Background(), inq.ID)
	require.NoError(t, err)
	assert.NotEqual(t, out.LeadID, again.LeadID)
}

func TestDeleteLeadHiddenByInquiryDeletion(t *testing.T) {
	f := newFixture(t, "New Lead")
	inq := f.addInquiry(t, "Nimal", 0)
	require.NoError(t, f.board.Refresh(context.Background()))
	out, err := f.board.ConvertInquiry(context.Background(), inq.ID)
	require.NoError(t, err)
	require.NoError(t, f.board.DeleteInquiry(context.Background(), inq.ID))

	require.NoError(t, f.board.DeleteLead(context.Background(), out.LeadID))

	stored, err := f.store.Leads().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.ErrorIs(t, f.board.DeleteLead(context.Background(), out.LeadID), ErrLeadNotFound)
}

func TestDeleteInquiryHidesLeadOnlyLocally(t *testing.T) {
	f := newFixture(t, "New Lead")
	inq := f.addInquiry(t, "Nimal", 0)
	require.NoError(t, f.board.Refresh(context.Background()))
	out, err := f.board.ConvertInquiry(context.Background(), inq.ID)
	require.NoError(t, err)

	require.NoError(t, f.board.DeleteInquiry(context.Background(), inq.ID))

	snap := f.board.Snapshot()
	assert.Empty(t, snap.Inquiries)
	assert.Empty(t, snap.Leads)

	stored, err := f.store.Leads().List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, out.LeadID, stored[0].ID)

	require.NoError(t, f.board.Refresh(context.Background()))
	assert.Len(t, f.board.Snapshot().Leads, 1)
}

type blockingStages struct {
	entity.StageRepositoryInterface
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStages) Rename(ctx context.Context, id, name string) error {
	close(b.entered)
	<-b.release
	return b.StageRepositoryInterface.Rename(ctx, id, name)
}

func TestBusyBoardRejectsConcurrentOperations(t *testing.T) {
	f := newFixture(t, "New Lead")
	require.NoError(t, f.board.Refresh(context.Background()))
	bs := &blockingStages{
		StageRepositoryInterface: f.store.Stages(),
		entered:                  make(chan struct{}),
		release:                  make(chan struct{}),
	}
	f.board.repos.Stages = bs

	done := make(chan error, 1)
	go func() { done <- f.board.RenameStage(context.Background(), f.stages[0].ID, "Inbox") }()
	<-bs.entered

	assert.True(t, f.board.Snapshot().Busy)
	assert.ErrorIs(t, f.board.AddStage(context.Background(), "Won"), ErrBusy)

	close(bs.release)
	require.NoError(t, <-done)
	assert.False(t, f.board.Snapshot().Busy)
}
