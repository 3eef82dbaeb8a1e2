package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/partsdesk/internal/cache"
	"github.com/JonMunkholm/partsdesk/internal/config"
	"github.com/JonMunkholm/partsdesk/internal/core"
	_ "github.com/JonMunkholm/partsdesk/internal/core/schemas"
	"github.com/JonMunkholm/partsdesk/internal/database/sqlite"
)

type testServer struct {
	srv   *Server
	token string
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import:   config.ImportConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2},
		Security: config.SecurityConfig{EnableCSP: true, RequireUser: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := core.NewService(store, cache.NewMemory(), core.ServiceOptions{
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		MaxFileSize:          cfg.Import.MaxFileSize,
	})
	_, err = svc.EnsureDefaultProjects(context.Background())
	require.NoError(t, err)

	u, err := svc.CreateUser(context.Background(), "bea@example.com", "Bea Buyer")
	require.NoError(t, err)

	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{srv: srv, token: u.APIToken}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if ts.token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return ts.do(t, req)
}

func uploadRequest(t *testing.T, path, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) createRequisition(t *testing.T) core.RequisitionDetail {
	t.Helper()
	rec := ts.doJSON(t, http.MethodPost, "/api/requisitions", core.RequisitionInput{
		ProjectCode:  "proj-alpha",
		PurchaseType: "proto",
		Items: []core.PurchaseItem{
			{ItemName: "10K Resistor", ItemCode: "RC0805FR-0710KL", Quantity: 100, Cost: 0.05},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[core.RequisitionDetail](t, rec)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestMe(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	u := decode[core.User](t, rec)
	assert.Equal(t, "bea@example.com", u.Email)
	assert.NotContains(t, rec.Body.String(), ts.token)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = ts.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH001", decode[ErrorResponse](t, rec).Code)
}

func TestAnonymousAccess(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireUser = false
	ts := newTestServer(t, cfg)
	ts.token = ""

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.doJSON(t, http.MethodPost, "/api/requisitions", core.RequisitionInput{
		ProjectCode: "PROJ-BETA", PurchaseType: "testing", RequestedBy: "Sam Shop",
		Items: []core.PurchaseItem{{ItemName: "Cap", ItemCode: "C-1U", Quantity: 2, Cost: 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Sam Shop", decode[core.RequisitionDetail](t, rec).RequestedBy)
}

func TestRequisitionLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig())
	d := ts.createRequisition(t)
	base := "/api/requisitions/" + d.ID.String()

	assert.Equal(t, core.StatusPending, d.Status)
	assert.Equal(t, "PROJ-ALPHA", d.ProjectCode)
	assert.InDelta(t, 5.0, d.TotalValue, 1e-9)

	rec := ts.doJSON(t, http.MethodPost, base+"/items", addItemsRequest{
		Items: []core.PurchaseItem{{ItemName: "Cap", ItemCode: "C-1U", Quantity: 4, Cost: 0.25}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 6.0, decode[core.Requisition](t, rec).TotalValue, 1e-9)

	rec = ts.doJSON(t, http.MethodPost, base+"/status", statusRequest{Status: "approved", Note: "ok"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, core.StatusApproved, decode[core.Requisition](t, rec).Status)

	rec = ts.doJSON(t, http.MethodPost, base+"/items", addItemsRequest{
		Items: []core.PurchaseItem{{ItemName: "Cap", ItemCode: "C-1U", Quantity: 1, Cost: 1}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "REQ002", decode[ErrorResponse](t, rec).Code)

	rec = ts.doJSON(t, http.MethodPost, base+"/status", statusRequest{Status: "Pending"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "REQ001", decode[ErrorResponse](t, rec).Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[core.RequisitionDetail](t, rec)
	assert.Len(t, got.Items, 2)
	require.NotNil(t, got.Requester)
	assert.Equal(t, "Bea Buyer", got.Requester.FullName)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, base+"/timeline", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]core.RequisitionEvent](t, rec)
	require.Len(t, events, 3)
	assert.Equal(t, core.ActionCreated, events[0].Action)
	assert.Equal(t, core.StatusApproved, events[2].ToStatus)

	rec = ts.do(t, httptest.NewRequest(http.MethodPost, base+"/duplicate", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dup := decode[core.RequisitionDetail](t, rec)
	assert.Equal(t, core.StatusPending, dup.Status)
	assert.Len(t, dup.Items, 2)
	assert.NotEqual(t, d.ID, dup.ID)
}

func TestListAndStats(t *testing.T) {
	ts := newTestServer(t, testConfig())
	a := ts.createRequisition(t)
	ts.createRequisition(t)

	rec := ts.doJSON(t, http.MethodPost, "/api/requisitions/"+a.ID.String()+"/status", statusRequest{Status: "Approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?status=pending", 1},
		{"?status=approved&project=proj-alpha", 1},
		{"?project=PROJ-BETA", 0},
	}
	for _, tt := range tests {
		t.Run("list"+tt.query, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/requisitions"+tt.query, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Len(t, decode[[]core.Requisition](t, rec), tt.want)
		})
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/requisitions?status=shipped", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/requisitions/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[core.RequisitionStats](t, rec)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 1, st.Approved)
}

func TestRequisitionErrors(t *testing.T) {
	ts := newTestServer(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed id", http.MethodGet, "/api/requisitions/not-a-uuid", "", http.StatusNotFound, "REQ005"},
		{"unknown id", http.MethodGet, "/api/requisitions/00000000-0000-0000-0000-000000000001", "", http.StatusNotFound, "REQ005"},
		{"bad json", http.MethodPost, "/api/requisitions", "{", http.StatusBadRequest, "REQ003"},
		{"unknown field", http.MethodPost, "/api/requisitions", `{"project":"x"}`, http.StatusBadRequest, "REQ003"},
		{"empty input", http.MethodPost, "/api/requisitions", `{}`, http.StatusBadRequest, "REQ003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := ts.do(t, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
		})
	}

	t.Run("validation details", func(t *testing.T) {
		rec := ts.doJSON(t, http.MethodPost, "/api/requisitions", map[string]any{})
		resp := decode[ErrorResponse](t, rec)
		fields := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			fields = append(fields, e.Field)
		}
		assert.Contains(t, fields, "projectCode")
		assert.Contains(t, fields, "items")
	})

	t.Run("htmx gets a fragment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/requisitions/not-a-uuid", nil)
		req.Header.Set("HX-Request", "true")
		rec := ts.do(t, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "Code: REQ005")
	})
}

func TestRequisitionPDF(t *testing.T) {
	ts := newTestServer(t, testConfig())
	d := ts.createRequisition(t)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/requisitions/"+d.ID.String()+"/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

const itemsCSV = "itemName,itemCode,quantity,cost\n" +
	"10K Resistor,RC0805FR-0710KL,100,0.05\n" +
	",MISSING-NAME,1,1\n"

func TestImportPreviewAndCommit(t *testing.T) {
	ts := newTestServer(t, testConfig())
	d := ts.createRequisition(t)

	rec := ts.do(t, uploadRequest(t, "/api/imports/items", "parts.csv", itemsCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[core.ImportPreview](t, rec)
	assert.Equal(t, 2, p.TotalRows)
	assert.Len(t, p.ValidItems, 1)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, 2, p.Errors[0].Row)
	assert.Equal(t, "itemName", p.Errors[0].Field)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/"+p.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	commitPath := "/api/imports/" + p.ID.String() + "/commit"
	rec = ts.doJSON(t, http.MethodPost, commitPath, commitRequest{RequisitionID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.doJSON(t, http.MethodPost, commitPath, commitRequest{RequisitionID: d.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[commitResponse](t, rec)
	assert.Equal(t, 1, res.Added)
	assert.InDelta(t, 10.0, res.Requisition.TotalValue, 1e-9)

	rec = ts.doJSON(t, http.MethodPost, commitPath, commitRequest{RequisitionID: d.ID.String()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "IMP005", decode[ErrorResponse](t, rec).Code)
}

func TestImportDiscardAndStatus(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(t, uploadRequest(t, "/api/imports/items", "parts.csv", itemsCSV))
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[core.ImportPreview](t, rec)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/imports/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[core.ImportStatus](t, rec).Previews)

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/imports/"+p.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/api/imports/"+p.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportUploadErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 64
	ts := newTestServer(t, cfg)

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/imports/items", strings.NewReader("x=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := ts.do(t, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "IMP003", decode[ErrorResponse](t, rec).Code)
	})

	t.Run("too large", func(t *testing.T) {
		rec := ts.do(t, uploadRequest(t, "/api/imports/items", "big.csv", strings.Repeat("a", 200)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "IMP001", decode[ErrorResponse](t, rec).Code)
	})
}

func TestImportHTMX(t *testing.T) {
	ts := newTestServer(t, testConfig())

	req := uploadRequest(t, "/api/imports/items", "parts.csv", itemsCSV)
	req.Header.Set("HX-Request", "true")
	rec := ts.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Valid items: 1")
}

func TestTemplates(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	infos := decode[[]templateInfo](t, rec)
	var keys []string
	for _, info := range infos {
		keys = append(keys, info.Key)
	}
	assert.Contains(t, keys, core.ItemSchemaKey)
	assert.Contains(t, keys, "resistor")

	tests := []struct {
		file       string
		wantStatus int
		wantType   string
	}{
		{"items.csv", http.StatusOK, "text/csv"},
		{"items.xlsx", http.StatusOK, "spreadsheetml"},
		{"capacitor.csv", http.StatusOK, "text/csv"},
		{"diode.csv", http.StatusNotFound, "application/json"},
		{"items.pdf", http.StatusUnsupportedMediaType, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/templates/"+tt.file, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantType)
		})
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/templates/items.csv", nil))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "itemName,"))
}

func TestProjectsComponentsAllocations(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.doJSON(t, http.MethodPost, "/api/projects", core.ProjectInput{Code: "proj-omega", Name: "Omega"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "PROJ-OMEGA", decode[core.Project](t, rec).Code)

	rec = ts.doJSON(t, http.MethodPost, "/api/projects", core.ProjectInput{Code: "PROJ-OMEGA", Name: "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Project](t, rec), len(core.DefaultProjectCodes)+1)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/projects/proj-nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	data := "manufacturerPN,value,package,quantity,tolerance\n" +
		"RC0805FR-0710KL,10K,0805,500,1%\n"
	rec = ts.do(t, uploadRequest(t, "/api/components/Resistor/import", "r.csv", data))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[core.ComponentImportResult](t, rec).Inserted)

	rec = ts.do(t, uploadRequest(t, "/api/components/resistor/import", "bad.csv", "manufacturerPN,quantity\n,abc\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, decode[core.ComponentImportResult](t, rec).Errors)

	rec = ts.do(t, uploadRequest(t, "/api/components/diode/import", "d.csv", data))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/components/resistor", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	comps := decode[[]core.Component](t, rec)
	require.Len(t, comps, 1)
	c := comps[0]

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/components", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Component](t, rec), 1)

	rec = ts.doJSON(t, http.MethodPost, "/api/projects/PROJ-OMEGA/allocations", allocateRequest{
		Allocations: []core.AllocationRequest{{ComponentID: c.ID, Quantity: 200}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.doJSON(t, http.MethodPost, "/api/projects/PROJ-OMEGA/allocations", allocateRequest{
		Allocations: []core.AllocationRequest{{ComponentID: c.ID, Quantity: 301}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "REQ004", decode[ErrorResponse](t, rec).Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/components/resistor/"+c.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 300, decode[core.Component](t, rec).Quantity)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/components/capacitor/"+c.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/projects/proj-omega/allocations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Allocation](t, rec), 1)
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"), "limits are per client")

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.allow("1.1.1.1"), "window reset")

	now = now.Add(3 * time.Minute)
	rl.sweep()
	assert.Empty(t, rl.visitors)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}
	ts := newTestServer(t, cfg)

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrInsufficientStock, http.StatusConflict},
		{core.ErrNothingToCommit, http.StatusUnprocessableEntity},
		{core.ErrTooManyImports, http.StatusServiceUnavailable},
		{core.ErrUnsupportedFile, http.StatusUnsupportedMediaType},
		{errNoFile, http.StatusBadRequest},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
