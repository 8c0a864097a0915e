package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"decokatsu-challenge-system/models"
	"decokatsu-challenge-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp wires the routes the way main does, minus the gateway
// middleware (the gateway is upstream of what these tests cover).
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ActionDefinition{},
		&models.LedgerEntry{},
		&models.Participant{},
		&models.GameAttempt{},
	))

	catalog, err := services.NewCatalogService(db)
	require.NoError(t, err)
	ledger := services.NewLedgerService(db, catalog)
	game := services.NewGameService(db)
	stats := services.NewStatsService(db)
	lottery := services.NewLotteryService(db, ledger)
	export := services.NewExportService(db)

	app := fiber.New()
	SetupChallengeRoutes(app, ledger, catalog, stats)
	SetupGameRoutes(app, game)
	SetupAdminRoutes(app, lottery, export)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}
