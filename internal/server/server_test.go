package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"notevault/internal/bootstrap"
	"notevault/internal/config"
	"notevault/internal/dto"
	"notevault/internal/server"
	"notevault/pkg/identity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProgramID = "4y3Yk2ZxNMtXidf6CDwnZzvodAcUC2nZqyD3k9pscbTS"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App: config.AppConfig{
			Environment:        "test",
			LogFilePath:        filepath.Join(dir, "vault.log"),
			HubLogFilePath:     filepath.Join(dir, "hub.log"),
			CorsAllowedOrigins: "http://localhost:5173",
			EventTopic:         "vault.events",
			SessionIdleTimeout: time.Hour,
		},
		Ledger: config.LedgerConfig{
			ProgramID:     testProgramID,
			KeypairPath:   filepath.Join(dir, "id.json"),
			SubmitTimeout: 5 * time.Second,
			QueryTimeout:  5 * time.Second,
		},
		Node: config.NodeConfig{
			Storage:     "memory",
			LogFilePath: filepath.Join(dir, "ledgerd.log"),
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, app *fiber.App, method, path, token, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestLedgerServerHealth(t *testing.T) {
	cfg := testConfig(t)
	node, err := bootstrap.NewNodeContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(node.Close)

	app := server.NewLedger(cfg, node).GetApp()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, testProgramID, health["program"])
}

func TestNodeContainerRejectsUnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Node.Storage = "leveldb"
	_, err := bootstrap.NewNodeContainer(cfg)
	assert.Error(t, err)
}

func TestVaultServerAgainstLedgerNode(t *testing.T) {
	cfg := testConfig(t)

	node, err := bootstrap.NewNodeContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(node.Close)
	ledgerHTTP := httptest.NewServer(adaptor.FiberApp(server.NewLedger(cfg, node).GetApp()))
	t.Cleanup(ledgerHTTP.Close)
	cfg.Ledger.Endpoint = ledgerHTTP.URL

	signer, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)
	require.NoError(t, identity.SaveKeypairFile(cfg.Ledger.KeypairPath, signer))

	container, err := bootstrap.NewContainer(cfg)
	require.NoError(t, err)
	t.Cleanup(container.Close)
	assert.Equal(t, signer.PublicKey(), container.Owner)

	app := server.New(cfg, container).GetApp()

	status, res := call(t, app, http.MethodPost, "/api/session", "", "")
	require.Equal(t, fiber.StatusCreated, status, res.Message)
	var opened dto.OpenSessionResponse
	require.NoError(t, json.Unmarshal(res.Data, &opened))

	status, res = call(t, app, http.MethodPost, "/api/notes/v1", opened.Token, `{"title":"Groceries","content":"Buy milk"}`)
	require.Equal(t, fiber.StatusCreated, status, res.Message)

	status, res = call(t, app, http.MethodGet, "/api/notes/v1", opened.Token, "")
	require.Equal(t, fiber.StatusOK, status)
	var view dto.SessionResponse
	require.NoError(t, json.Unmarshal(res.Data, &view))
	require.Len(t, view.Notes, 1)
	assert.Equal(t, "Groceries", view.Notes[0].Title)
	assert.Equal(t, signer.PublicKey().String(), view.Notes[0].Owner)

	t.Run("event stream requires a token", func(t *testing.T) {
		status, _ := call(t, app, http.MethodGet, "/api/ws", "", "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})
}

func TestVaultServerCors(t *testing.T) {
	tests := []struct {
		name            string
		origins         string
		wantOrigin      string
		wantCredentials string
	}{
		{"explicit origin allows credentials", "http://localhost:5173", "http://localhost:5173", "true"},
		{"wildcard origin drops credentials", "*", "*", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.App.CorsAllowedOrigins = tt.origins
			cfg.Ledger.Endpoint = "http://127.0.0.1:1"

			signer, err := identity.GenerateKeypairSigner()
			require.NoError(t, err)
			require.NoError(t, identity.SaveKeypairFile(cfg.Ledger.KeypairPath, signer))

			container, err := bootstrap.NewContainer(cfg)
			require.NoError(t, err)
			t.Cleanup(container.Close)

			var srv *server.Server
			require.NotPanics(t, func() { srv = server.New(cfg, container) })

			req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			resp, err := srv.GetApp().Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
			assert.Equal(t, tt.wantOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredentials, resp.Header.Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestVaultContainerRequiresKeypair(t *testing.T) {
	cfg := testConfig(t)
	_, err := bootstrap.NewContainer(cfg)
	assert.Error(t, err)
}
