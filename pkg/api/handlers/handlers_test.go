package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexadash/dcx/internal/testutil"
	"github.com/nexadash/dcx/pkg/catalog"
	"github.com/nexadash/dcx/pkg/datacontext"
	"github.com/nexadash/dcx/pkg/querybuilder"
	"github.com/nexadash/dcx/pkg/refresher"
	"github.com/nexadash/dcx/pkg/tasks"
	"github.com/nexadash/dcx/pkg/warehouse"
)

type stubRefresher struct {
	screens    map[string]*refresher.ScreenConfig
	getResult  *refresher.ScreenResult
	getErr     error
	refreshed  []string
	refreshErr error
	cleared    []string
	clearErr   error
}

func (s *stubRefresher) GetScreen(_ context.Context, _, screenID string, _ refresher.GetOptions) (*refresher.ScreenResult, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}

	if s.getResult != nil {
		return s.getResult, nil
	}

	return &refresher.ScreenResult{Data: datacontext.Context{}, Source: refresher.SourceSeed}, nil
}

func (s *stubRefresher) RefreshScreen(_ context.Context, tenantID, screenID string, _ querybuilder.FilterContext) (datacontext.Context, error) {
	s.refreshed = append(s.refreshed, tenantID+"/"+screenID)

	if s.refreshErr != nil {
		return nil, s.refreshErr
	}

	return datacontext.Context{"main": map[string]interface{}{}}, nil
}

func (s *stubRefresher) InvalidateScreen(_ context.Context, screenID string) error {
	s.cleared = append(s.cleared, screenID)
	return s.clearErr
}

func (s *stubRefresher) Screens() map[string]*refresher.ScreenConfig { return s.screens }

type stubWarehouse struct {
	status      warehouse.HealthDoc
	validateErr error
	reset       []string
}

func (s *stubWarehouse) Validate(_ context.Context, _ string) error { return s.validateErr }

func (s *stubWarehouse) Execute(_ context.Context, _, _ string, _ ...interface{}) ([]warehouse.Row, error) {
	return []warehouse.Row{}, nil
}

func (s *stubWarehouse) Status(_ string) warehouse.HealthDoc { return s.status }
func (s *stubWarehouse) Reset(tenantID string)               { s.reset = append(s.reset, tenantID) }

type stubCatalog struct {
	invalidated []string
}

func (s *stubCatalog) GetContext(_ string) (*catalog.Catalog, error) { return nil, nil }
func (s *stubCatalog) Invalidate(tenantID string)                    { s.invalidated = append(s.invalidated, tenantID) }

type fixture struct {
	app       *fiber.App
	refresher *stubRefresher
	warehouse *stubWarehouse
	catalog   *stubCatalog
}

func newFixture(t *testing.T, queue *tasks.Queue) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	f := &fixture{
		refresher: &stubRefresher{
			screens: map[string]*refresher.ScreenConfig{
				"operations": {
					SectionKey: "operational",
					TTL:        30 * time.Second,
					Refresh:    "@every 30s",
				},
			},
		},
		warehouse: &stubWarehouse{status: warehouse.HealthDoc{Status: "ok"}},
		catalog:   &stubCatalog{},
	}

	f.app = fiber.New()

	server := NewServer(f.refresher, f.warehouse, f.catalog, queue, log)
	server.Register(f.app.Group("/api/v1"))

	return f
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out))

	return out
}

func TestListScreens(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.app.Test(httptest.NewRequest("GET", "/api/v1/screens", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	screens, ok := body["screens"].([]interface{})
	require.True(t, ok)
	require.Len(t, screens, 1)

	screen, ok := screens[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "operations", screen["id"])
	assert.Equal(t, "30s", screen["ttl"])
}

func TestGetScreen(t *testing.T) {
	f := newFixture(t, nil)
	f.refresher.getResult = &refresher.ScreenResult{
		Data:   datacontext.Context{"operational": map[string]interface{}{}},
		Source: refresher.SourceFresh,
		Ts:     1234,
	}

	resp, err := f.app.Test(httptest.NewRequest("GET", "/api/v1/screens/operations?tenant=acme", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "operations", body["screen"])
	assert.Equal(t, "acme", body["tenant"])
	assert.Equal(t, "fresh", body["source"])
}

func TestGetScreenNotFound(t *testing.T) {
	f := newFixture(t, nil)
	f.refresher.getErr = refresher.ErrUnknownScreen

	resp, err := f.app.Test(httptest.NewRequest("GET", "/api/v1/screens/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestRefreshScreenSync(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest("POST", "/api/v1/screens/operations/refresh?tenant=acme",
		strings.NewReader(`{"sync": true, "year": 2026, "month": "Marzo"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, f.refresher.refreshed, 1)
	assert.Equal(t, "acme/operations", f.refresher.refreshed[0])
}

func TestRefreshScreenEnqueued(t *testing.T) {
	client := testutil.NewMiniredisClient(t)

	queue := tasks.NewQueue(logrus.New(), &asynq.RedisClientOpt{Addr: client.Options().Addr})
	t.Cleanup(func() { _ = queue.Close() })

	f := newFixture(t, queue)

	resp, err := f.app.Test(httptest.NewRequest("POST", "/api/v1/screens/operations/refresh?tenant=acme", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "enqueued", body["status"])
	assert.Empty(t, f.refresher.refreshed)
}

func TestRefreshScreenUnknown(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.app.Test(httptest.NewRequest("POST", "/api/v1/screens/nope/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestInvalidateScreen(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.app.Test(httptest.NewRequest("DELETE", "/api/v1/screens/operations/cache", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"operations"}, f.refresher.cleared)
}

func TestInvalidateScreenUnknown(t *testing.T) {
	f := newFixture(t, nil)
	f.refresher.clearErr = refresher.ErrUnknownScreen

	resp, err := f.app.Test(httptest.NewRequest("DELETE", "/api/v1/screens/nope/cache", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetTenantStatus(t *testing.T) {
	f := newFixture(t, nil)
	f.warehouse.status = warehouse.HealthDoc{Status: "blocked", Blocked: true, Failures: 2}

	resp, err := f.app.Test(httptest.NewRequest("GET", "/api/v1/tenants/acme/status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	health, ok := body["health"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "blocked", health["status"])
	assert.Equal(t, true, health["blocked"])
}

func TestResetTenant(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.app.Test(httptest.NewRequest("POST", "/api/v1/tenants/acme/reset", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"acme"}, f.warehouse.reset)
}

func TestValidateTenant(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.app.Test(httptest.NewRequest("POST", "/api/v1/tenants/acme/validate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestValidateTenantUnreachable(t *testing.T) {
	f := newFixture(t, nil)
	f.warehouse.validateErr = assert.AnError

	resp, err := f.app.Test(httptest.NewRequest("POST", "/api/v1/tenants/acme/validate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestInvalidateCatalog(t *testing.T) {
	f := newFixture(t, nil)

	resp, err := f.app.Test(httptest.NewRequest("POST", "/api/v1/catalog/invalidate?tenant=acme", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"acme"}, f.catalog.invalidated)
}
