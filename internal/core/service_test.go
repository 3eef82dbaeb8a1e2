package core_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/partsdesk/internal/cache"
	"github.com/JonMunkholm/partsdesk/internal/core"
	_ "github.com/JonMunkholm/partsdesk/internal/core/schemas"
	"github.com/JonMunkholm/partsdesk/internal/database/sqlite"
)

type testEnv struct {
	svc   *core.Service
	cache *cache.Memory
	user  core.User
	ctx   context.Context
}

func newTestEnv(t *testing.T, opts core.ServiceOptions) *testEnv {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mem := cache.NewMemory()
	svc := core.NewService(store, mem, opts)

	n, err := svc.EnsureDefaultProjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(core.DefaultProjectCodes), n)

	u, err := svc.CreateUser(context.Background(), "Buyer@Example.com", "Bea Buyer")
	require.NoError(t, err)

	return &testEnv{
		svc:   svc,
		cache: mem,
		user:  u,
		ctx:   core.ContextWithUser(context.Background(), &u),
	}
}

func resistor() core.PurchaseItem {
	return core.PurchaseItem{ItemName: "10K Resistor", ItemCode: "RC0805FR-0710KL", Quantity: 100, Cost: 0.05}
}

func (e *testEnv) createRequisition(t *testing.T, items ...core.PurchaseItem) core.RequisitionDetail {
	t.Helper()
	d, err := e.svc.CreateRequisition(e.ctx, core.RequisitionInput{
		ProjectCode:  "PROJ-ALPHA",
		PurchaseType: "proto",
		Items:        items,
	})
	require.NoError(t, err)
	return d
}

func TestEnsureDefaultProjects_Idempotent(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})

	n, err := env.svc.EnsureDefaultProjects(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := env.svc.GetProject(env.ctx, "proj-alpha")
	require.NoError(t, err)
	assert.Equal(t, "Project Alpha", p.Name)
	assert.Equal(t, core.ProjectDesign, p.Status)
}

func TestCreateRequisition(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})

	d := env.createRequisition(t, resistor(), core.PurchaseItem{
		ItemName: "Cap", ItemCode: "C-1U", Quantity: 4, Cost: 0.25, Currency: "eur", Units: "reel",
	})

	assert.Equal(t, core.StatusPending, d.Status)
	assert.Equal(t, core.PurchaseProto, d.PurchaseType)
	assert.Equal(t, env.user.ID.String(), d.RequestedBy)
	require.NotNil(t, d.Requester)
	assert.Equal(t, "Bea Buyer", d.Requester.FullName)
	assert.InDelta(t, 6.0, d.TotalValue, 1e-9)

	require.Len(t, d.Items, 2)
	assert.Equal(t, 1, d.Items[0].Line)
	assert.Equal(t, "pcs", d.Items[0].Units)
	assert.Equal(t, "USD", d.Items[0].Currency)
	assert.Equal(t, "EUR", d.Items[1].Currency)

	require.Len(t, d.Timeline, 1)
	assert.Equal(t, core.ActionCreated, d.Timeline[0].Action)
	assert.Equal(t, env.user.ID.String(), d.Timeline[0].ActorID)
}

func TestCreateRequisition_Invalid(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})

	tests := []struct {
		name       string
		ctx        context.Context
		in         core.RequisitionInput
		wantFields []string
	}{
		{
			name:       "empty input",
			ctx:        env.ctx,
			in:         core.RequisitionInput{},
			wantFields: []string{"projectCode", "purchaseType", "items"},
		},
		{
			name: "unknown purchase type and bad item",
			ctx:  env.ctx,
			in: core.RequisitionInput{
				ProjectCode: "PROJ-ALPHA", PurchaseType: "capex",
				Items: []core.PurchaseItem{{ItemName: "x", ItemCode: "y", Quantity: 0, Cost: -1}},
			},
			wantFields: []string{"purchaseType", "quantity", "cost"},
		},
		{
			name: "unknown project",
			ctx:  env.ctx,
			in: core.RequisitionInput{
				ProjectCode: "PROJ-NOPE", PurchaseType: core.PurchaseTesting, Items: []core.PurchaseItem{resistor()},
			},
			wantFields: []string{"projectCode"},
		},
		{
			name: "anonymous without requester",
			ctx:  context.Background(),
			in: core.RequisitionInput{
				ProjectCode: "PROJ-ALPHA", PurchaseType: core.PurchaseTesting, Items: []core.PurchaseItem{resistor()},
			},
			wantFields: []string{"requestedBy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateRequisition(tt.ctx, tt.in)
			require.ErrorIs(t, err, core.ErrValidation)

			var inErr *core.InputError
			require.True(t, errors.As(err, &inErr))
			var fields []string
			for _, ve := range inErr.Errors {
				fields = append(fields, ve.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestCreateRequisition_AnonymousWithRequester(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})

	d, err := env.svc.CreateRequisition(context.Background(), core.RequisitionInput{
		ProjectCode: "PROJ-BETA", PurchaseType: core.PurchaseResearch, RequestedBy: "lab-kiosk",
		Items: []core.PurchaseItem{resistor()},
	})
	require.NoError(t, err)
	assert.Equal(t, "lab-kiosk", d.RequestedBy)
	assert.Nil(t, d.Requester)
}

func TestStatusWorkflow(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	d := env.createRequisition(t, resistor())

	_, err := env.svc.TransitionStatus(env.ctx, d.ID, core.StatusCompleted, "")
	require.ErrorIs(t, err, core.ErrInvalidTransition)

	r, err := env.svc.Approve(env.ctx, d.ID, "looks good")
	require.NoError(t, err)
	assert.Equal(t, core.StatusApproved, r.Status)

	_, err = env.svc.AddItems(env.ctx, d.ID, []core.PurchaseItem{resistor()})
	require.ErrorIs(t, err, core.ErrRequisitionLocked)

	r, err = env.svc.TransitionStatus(env.ctx, d.ID, "in_progress", "")
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, r.Status)

	r, err = env.svc.TransitionStatus(env.ctx, d.ID, "completed", "")
	require.NoError(t, err)
	assert.True(t, r.Status.IsTerminal())

	_, err = env.svc.Cancel(env.ctx, d.ID, "")
	require.ErrorIs(t, err, core.ErrInvalidTransition)

	_, err = env.svc.TransitionStatus(env.ctx, d.ID, "archived", "")
	require.ErrorIs(t, err, core.ErrValidation)

	detail, err := env.svc.GetRequisition(env.ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, detail.Timeline, 4)
	last := detail.Timeline[3]
	assert.Equal(t, core.StatusInProgress, last.FromStatus)
	assert.Equal(t, core.StatusCompleted, last.ToStatus)
	assert.Equal(t, "looks good", detail.Timeline[1].Note)
}

func TestRejectIsTerminal(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	d := env.createRequisition(t, resistor())

	_, err := env.svc.Reject(env.ctx, d.ID, "over budget")
	require.NoError(t, err)

	_, err = env.svc.Approve(env.ctx, d.ID, "")
	require.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestTransitionStatus_NotFound(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	_, err := env.svc.Approve(env.ctx, uuid.New(), "")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDuplicateRequisition(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	src := env.createRequisition(t, resistor())
	_, err := env.svc.Reject(env.ctx, src.ID, "")
	require.NoError(t, err)

	dup, err := env.svc.DuplicateRequisition(env.ctx, src.ID)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, core.StatusPending, dup.Status)
	assert.Equal(t, src.TotalValue, dup.TotalValue)
	require.Len(t, dup.Items, 1)
	assert.Equal(t, "RC0805FR-0710KL", dup.Items[0].ItemCode)
	require.Len(t, dup.Timeline, 1)
	assert.Equal(t, core.ActionDuplicated, dup.Timeline[0].Action)
	assert.Equal(t, "copied from "+src.ID.String(), dup.Timeline[0].Note)
}

const twoRowCSV = "itemName,itemCode,quantity,cost\n" +
	"10K Resistor,RC0805FR-0710KL,100,0.05\n" +
	",MISSING-NAME,1,1\n"

func TestImportPreviewAndCommit(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	d := env.createRequisition(t, core.PurchaseItem{ItemName: "Cap", ItemCode: "C-1U", Quantity: 4, Cost: 0.25})

	p, err := env.svc.PreviewImport(env.ctx, "items.csv", []byte(twoRowCSV))
	require.NoError(t, err)
	assert.Equal(t, core.PhasePreview, p.Phase)
	assert.Equal(t, 2, p.TotalRows)
	require.Len(t, p.ValidItems, 1)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "itemName", p.Errors[0].Field)
	assert.Equal(t, 2, p.Errors[0].Row)
	assert.Equal(t, env.user.ID.String(), p.CreatedBy)
	assert.Equal(t, 1, env.svc.ImportStatus().Previews)

	r, err := env.svc.CommitImport(env.ctx, p.ID, d.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, r.TotalValue, 1e-9)

	_, err = env.svc.GetImportPreview(p.ID)
	require.ErrorIs(t, err, core.ErrPreviewNotFound)

	detail, err := env.svc.GetRequisition(env.ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, 2, detail.Items[1].Line)
	assert.Equal(t, "pcs", detail.Items[1].Units)
}

func TestCommitImport_Failures(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	d := env.createRequisition(t, resistor())

	_, err := env.svc.CommitImport(env.ctx, uuid.New(), d.ID)
	require.ErrorIs(t, err, core.ErrPreviewNotFound)

	bad, err := env.svc.PreviewImport(env.ctx, "items.csv", []byte("itemName,itemCode,quantity,cost\n,,,\nx,,0,\n"))
	require.NoError(t, err)
	assert.Equal(t, core.PhaseError, bad.Phase)
	_, err = env.svc.CommitImport(env.ctx, bad.ID, d.ID)
	require.ErrorIs(t, err, core.ErrNothingToCommit)

	good, err := env.svc.PreviewImport(env.ctx, "items.csv", []byte(twoRowCSV))
	require.NoError(t, err)
	_, err = env.svc.Approve(env.ctx, d.ID, "")
	require.NoError(t, err)

	_, err = env.svc.CommitImport(env.ctx, good.ID, d.ID)
	require.ErrorIs(t, err, core.ErrRequisitionLocked)

	_, err = env.svc.GetImportPreview(good.ID)
	require.NoError(t, err, "a failed commit keeps the preview")

	require.NoError(t, env.svc.DiscardImport(good.ID))
	require.ErrorIs(t, env.svc.DiscardImport(good.ID), core.ErrPreviewNotFound)
}

// slowStore widens the window between reading a preview and storing its items.
type slowStore struct {
	*sqlite.Store
	delay time.Duration
}

func (s slowStore) AppendItems(ctx context.Context, id uuid.UUID, items []core.PurchaseItem, ev core.RequisitionEvent) (core.Requisition, error) {
	time.Sleep(s.delay)
	return s.Store.AppendItems(ctx, id, items, ev)
}

func TestCommitImport_ConcurrentCommitsApplyOnce(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := core.NewService(slowStore{Store: store, delay: 20 * time.Millisecond}, nil, core.ServiceOptions{})
	ctx := context.Background()
	_, err = svc.EnsureDefaultProjects(ctx)
	require.NoError(t, err)

	d, err := svc.CreateRequisition(ctx, core.RequisitionInput{
		ProjectCode:  "PROJ-ALPHA",
		PurchaseType: "proto",
		RequestedBy:  "buyer@example.com",
		Items:        []core.PurchaseItem{resistor()},
	})
	require.NoError(t, err)

	p, err := svc.PreviewImport(ctx, "items.csv", []byte(twoRowCSV))
	require.NoError(t, err)

	const commits = 2
	errs := make([]error, commits)
	var wg sync.WaitGroup
	for i := 0; i < commits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CommitImport(ctx, p.ID, d.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, core.ErrPreviewNotFound)
	}
	assert.Equal(t, 1, succeeded)

	detail, err := svc.GetRequisition(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 2)
}

func TestRequisitions_ProjectCodeIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})

	d, err := env.svc.CreateRequisition(env.ctx, core.RequisitionInput{
		ProjectCode:  "  proj-alpha ",
		PurchaseType: "proto",
		Items:        []core.PurchaseItem{resistor()},
	})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-ALPHA", d.ProjectCode)

	for _, code := range []string{"proj-alpha", "PROJ-ALPHA", " Proj-Alpha"} {
		t.Run(code, func(t *testing.T) {
			reqs, err := env.svc.ListRequisitions(env.ctx, core.RequisitionFilter{ProjectCode: code})
			require.NoError(t, err)
			require.Len(t, reqs, 1)
			assert.Equal(t, d.ID, reqs[0].ID)
		})
	}
}

func TestPreviewImport_FileTooLarge(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{MaxFileSize: 16})

	_, err := env.svc.PreviewImport(env.ctx, "items.csv", []byte(twoRowCSV))
	require.ErrorIs(t, err, core.ErrFileTooLarge)
	assert.Equal(t, "IMP001", core.MapError(err).Code)
}

func TestRequisitionStats_CachedAndInvalidated(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	a := env.createRequisition(t, resistor())
	env.createRequisition(t, resistor())

	st, err := env.svc.RequisitionStats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.Pending)
	assert.InDelta(t, 10.0, st.TotalValue, 1e-9)

	_, ok, err := env.cache.Get(env.ctx, core.StatsCacheKey)
	require.NoError(t, err)
	assert.True(t, ok, "stats should be cached")

	_, err = env.svc.Approve(env.ctx, a.ID, "")
	require.NoError(t, err)

	_, ok, _ = env.cache.Get(env.ctx, core.StatsCacheKey)
	assert.False(t, ok, "a status change should drop cached stats")

	st, err = env.svc.RequisitionStats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 1, st.Approved)
}

func TestRefreshStats_OverwritesCache(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	env.createRequisition(t, resistor())

	_, err := env.svc.RequisitionStats(env.ctx)
	require.NoError(t, err)

	env.createRequisition(t, resistor())
	st, err := env.svc.RefreshStats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)

	cached, err := env.svc.RequisitionStats(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, st, cached)
}

func TestPurgeExpiredPreviews(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{PreviewTTL: time.Millisecond})

	p, err := env.svc.PreviewImport(env.ctx, "items.csv", []byte(twoRowCSV))
	require.NoError(t, err)
	assert.Equal(t, 1, env.svc.ImportStatus().Previews)

	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 1, env.svc.PurgeExpiredPreviews())
	assert.Equal(t, 0, env.svc.ImportStatus().Previews)

	_, err = env.svc.GetImportPreview(p.ID)
	assert.ErrorIs(t, err, core.ErrPreviewNotFound)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})

	assert.Equal(t, "buyer@example.com", env.user.Email)
	assert.Len(t, env.user.APIToken, 48)

	u, err := env.svc.Authenticate(context.Background(), env.user.APIToken)
	require.NoError(t, err)
	assert.Equal(t, env.user.ID, u.ID)

	_, err = env.svc.Authenticate(context.Background(), "nope")
	require.ErrorIs(t, err, core.ErrUnauthenticated)

	_, err = env.svc.Authenticate(context.Background(), " ")
	require.ErrorIs(t, err, core.ErrUnauthenticated)

	_, err = env.svc.CreateUser(context.Background(), "buyer@example.com", "Again")
	require.ErrorIs(t, err, core.ErrDuplicate)

	_, err = env.svc.CreateUser(context.Background(), "not-an-email", "")
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestComponentsImportAndAllocate(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})

	data := "manufacturerPN,value,package,quantity,tolerance\n" +
		"RC0805FR-0710KL,10K,0805,500,1%\n"
	res, err := env.svc.ImportComponents(env.ctx, core.KindResistor, "r.csv", []byte(data))
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Inserted)

	comps, err := env.svc.ListComponents(env.ctx, core.KindResistor)
	require.NoError(t, err)
	require.Len(t, comps, 1)
	c := comps[0]
	assert.Equal(t, "1%", c.Attributes["tolerance"])

	allocs, err := env.svc.AllocateComponents(env.ctx, "proj-alpha", []core.AllocationRequest{{ComponentID: c.ID, Quantity: 200}})
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, "PROJ-ALPHA", allocs[0].ProjectCode)

	_, err = env.svc.AllocateComponents(env.ctx, "PROJ-ALPHA", []core.AllocationRequest{{ComponentID: c.ID, Quantity: 301}})
	require.ErrorIs(t, err, core.ErrInsufficientStock)

	_, err = env.svc.AllocateComponents(env.ctx, "PROJ-ALPHA", []core.AllocationRequest{{ComponentID: c.ID, Quantity: 0}})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = env.svc.AllocateComponents(env.ctx, "PROJ-NOPE", []core.AllocationRequest{{ComponentID: c.ID, Quantity: 1}})
	require.ErrorIs(t, err, core.ErrNotFound)

	got, err := env.svc.GetComponent(env.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 300, got.Quantity)

	listed, err := env.svc.ListAllocations(env.ctx, "PROJ-ALPHA")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	res, err = env.svc.ImportComponents(env.ctx, core.KindResistor, "bad.csv", []byte("manufacturerPN,quantity\n,abc\n"))
	require.NoError(t, err)
	assert.Zero(t, res.Inserted)
	assert.Len(t, res.Errors, 2)

	_, err = env.svc.ImportComponents(env.ctx, "diode", "d.csv", []byte(data))
	require.ErrorIs(t, err, core.ErrUnknownKind)
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})

	p, err := env.svc.CreateProject(env.ctx, core.ProjectInput{Code: " proj-omega ", Name: "Omega"})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-OMEGA", p.Code)

	_, err = env.svc.CreateProject(env.ctx, core.ProjectInput{Code: "PROJ-OMEGA", Name: "Again"})
	require.ErrorIs(t, err, core.ErrDuplicate)

	_, err = env.svc.CreateProject(env.ctx, core.ProjectInput{Code: "X", Status: "Someday"})
	require.ErrorIs(t, err, core.ErrValidation)

	projects, err := env.svc.ListProjects(env.ctx)
	require.NoError(t, err)
	assert.Len(t, projects, len(core.DefaultProjectCodes)+1)
}

func TestExportRequisitionPDF(t *testing.T) {
	env := newTestEnv(t, core.ServiceOptions{})
	d := env.createRequisition(t, resistor())

	var buf bytes.Buffer
	require.NoError(t, env.svc.ExportRequisitionPDF(env.ctx, d.ID, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	require.ErrorIs(t, env.svc.ExportRequisitionPDF(env.ctx, uuid.New(), &buf), core.ErrNotFound)
}
