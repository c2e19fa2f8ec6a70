package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/config"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseType:          "sqlite",
		DatabasePath:          filepath.Join(t.TempDir(), "app.db"),
		Timezone:              "UTC",
		JWTSecret:             "test-secret",
		ResolveMaxAttempts:    1,
		ResolveInitialBackoff: time.Millisecond,
		RateLimitPerMinute:    100,
		RequestTimeout:        5 * time.Second,
	}
}

func TestOpenMigrateSeed(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	applied, err := a.Migrate(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, applied)

	again, err := a.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, a.Seed(ctx))
	require.NoError(t, a.Seed(ctx))

	var defs int
	require.NoError(t, a.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM achievements").Scan(&defs))
	assert.Equal(t, len(a.Catalog.Achievements()), defs)
}

func TestHandlerServesHealth(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, testConfig(t), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	_, err = a.Migrate(ctx)
	require.NoError(t, err)

	h, stop := a.Handler()
	defer stop()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenRejectsUnknownDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseType = "oracle"
	_, err := Open(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
