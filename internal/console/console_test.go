package console

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/inventory-console/internal/adapter/handler"
	"github.com/rl1809/inventory-console/internal/adapter/storage"
	"github.com/rl1809/inventory-console/internal/config"
	"github.com/rl1809/inventory-console/internal/core/domain"
	"github.com/rl1809/inventory-console/internal/core/service"
)

type harness struct {
	cfg  *config.Config
	repo *storage.MemoryAdapter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := storage.NewMemoryAdapter(
		domain.Product{ID: "P1", Name: "Desk Lamp", Category: "Home", Supplier: "Acme",
			CurrentStock: 8, MinStock: 10, MaxStock: 50, UnitCost: decimal.NewFromInt(5), Status: domain.StatusLowStock},
		domain.Product{ID: "P2", Name: "Office Chair", Category: "Furniture", Supplier: "Globex",
			CurrentStock: 30, MinStock: 5, MaxStock: 40, UnitCost: decimal.NewFromInt(50), Status: domain.StatusInStock},
	)
	auth := handler.NewAuthenticator("test-secret", time.Minute, time.Hour, "admin", string(hash))
	srv := httptest.NewServer(handler.NewHTTPHandler(service.NewCatalogService(repo, nil), auth).Routes())
	t.Cleanup(srv.Close)

	return &harness{
		cfg: &config.Config{
			APIURL:            srv.URL + "/api",
			APITimeoutSeconds: 5,
			StateFile:         filepath.Join(t.TempDir(), "state.db"),
		},
		repo: repo,
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, app := newRoot(h.cfg)
	defer app.close()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestList_PublicRead(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "list")
	assert.Contains(t, out, "Desk Lamp")
	assert.Contains(t, out, "Office Chair")
	assert.Contains(t, out, "2 product(s)")

	out = h.mustRun(t, "list", "--status", "low-stock")
	assert.Contains(t, out, "Desk Lamp")
	assert.NotContains(t, out, "Office Chair")

	out = h.mustRun(t, "list", "--search", "CHAIR")
	assert.Contains(t, out, "1 product(s)")
}

func TestAdjust_RequiresLogin(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "adjust", "P1", "5")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Contains(t, err.Error(), "inventoryctl login")
}

func TestLoginThenAdjust(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "login", "--password", "admin")
	assert.Contains(t, out, "logged in as admin")

	out = h.mustRun(t, "adjust", "P1", "5")
	assert.Contains(t, out, "P1 stock 13 (in-stock)")

	stored, _ := h.repo.GetProduct(context.Background(), "P1")
	assert.Equal(t, 13, stored.CurrentStock)
	assert.Equal(t, domain.StatusInStock, stored.Status)

	out = h.mustRun(t, "adjust", "P1", "--", "-100")
	assert.Contains(t, out, "P1 stock 0 (out-of-stock)")

	_, err := h.run(t, "adjust", "UNKNOWN", "1")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "login", "--password", "nope")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFailedReloginKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-p", "admin")

	_, err := h.run(t, "login", "-p", "typo")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	out := h.mustRun(t, "adjust", "P1", "1")
	assert.Contains(t, out, "P1 stock 9 (low-stock)")
}

func TestStats(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "stats")

	assert.Regexp(t, `Total products\s+2`, out)
	assert.Regexp(t, `Low stock\s+1`, out)
	assert.Regexp(t, `Total value\s+1540\.00`, out)
	assert.Contains(t, out, "At or below minimum")
}

func TestAddUpdateDelete(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-p", "admin")

	out := h.mustRun(t, "add", "--id", "P3", "--name", "Mug", "--category", "Kitchen", "--supplier", "Acme",
		"--stock", "0", "--min", "2", "--cost", "3.50")
	assert.Contains(t, out, "added P3 (out-of-stock)")

	_, err := h.run(t, "add", "--id", "P4", "--name", "Plate")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"category", "supplier"}, verr.Fields)

	out = h.mustRun(t, "update", "P3", "--stock", "10")
	assert.Contains(t, out, "updated P3 (in-stock)")
	stored, _ := h.repo.GetProduct(context.Background(), "P3")
	assert.Equal(t, "Mug", stored.Name, "unset flags keep their values")
	assert.True(t, decimal.RequireFromString("3.50").Equal(stored.UnitCost))

	h.mustRun(t, "delete", "P3")
	gone, _ := h.repo.GetProduct(context.Background(), "P3")
	assert.Nil(t, gone)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "-p", "admin")

	assert.Contains(t, h.mustRun(t, "logout"), "logged out")

	_, err := h.run(t, "delete", "P1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPrefs(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "prefs", "get")
	assert.Contains(t, out, "dashboard_chart_data=sales")
	assert.Contains(t, out, "dashboard_chart_type=area")

	h.mustRun(t, "prefs", "set", "dashboard_chart_type", "bar")
	assert.Equal(t, "dashboard_chart_type=bar\n", h.mustRun(t, "prefs", "get", "dashboard_chart_type"))

	_, err := h.run(t, "prefs", "set", "dashboard_chart_type", "donut")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed")
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)

	// signed out: falls back to the local breakdown
	out := h.mustRun(t, "dashboard")
	assert.Regexp(t, `Furniture\s+30`, out)
	assert.Contains(t, out, "area chart of sales")

	h.mustRun(t, "login", "-p", "admin")
	out = h.mustRun(t, "dashboard")
	lines := strings.Split(out, "\n")
	var categoryRows []string
	for _, l := range lines {
		if strings.HasPrefix(l, "Furniture") || strings.HasPrefix(l, "Home") {
			categoryRows = append(categoryRows, strings.Fields(l)[0])
		}
	}
	assert.Equal(t, []string{"Furniture", "Home"}, categoryRows)
}

func TestDashboard_BackendFailureIsReported(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"P1","name":"Desk Lamp","category":"Home","supplier":"Acme","current_stock":8,"min_stock":10}]`))
	})
	mux.HandleFunc("GET /api/dashboard-stats/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"internal error"}`, http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	h := &harness{cfg: &config.Config{
		APIURL:            srv.URL + "/api",
		APITimeoutSeconds: 5,
		StateFile:         filepath.Join(t.TempDir(), "state.db"),
	}}

	_, err := h.run(t, "dashboard")

	var terr *domain.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
}

func TestHashPasswordIsOffline(t *testing.T) {
	h := newHarness(t)
	h.cfg.StateFile = filepath.Join(t.TempDir(), "missing-dir", "state.db")

	out := h.mustRun(t, "hashpw", "secret")

	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("secret")))
}
