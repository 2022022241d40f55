package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"notevault/internal/config"
	"notevault/internal/controller"
	"notevault/internal/dto"
	"notevault/internal/pkg/logger"
	"notevault/internal/pkg/serverutils"
	"notevault/internal/repository/memory"
	"notevault/internal/service"
	"notevault/pkg/identity"
	"notevault/pkg/ledger/ledgertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
}

type vaultAPI struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func newVaultAPI(t *testing.T) *vaultAPI {
	t.Helper()
	l := ledgertest.New(t)
	alice, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	svc := service.NewVaultService(l.Program.ID(), l.Client(alice), nil, nil, logger.NewNopLogger())
	auth := config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	controller.NewVaultController(svc, memory.NewSessionRepository(time.Hour), alice.PublicKey(), auth).RegisterRoutes(app.Group("/api"))

	return &vaultAPI{t: t, app: app}
}

func (a *vaultAPI) do(method, path string, body interface{}) (int, apiResponse) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (a *vaultAPI) open() dto.OpenSessionResponse {
	a.t.Helper()
	status, res := a.do(http.MethodPost, "/api/session", nil)
	require.Equal(a.t, fiber.StatusCreated, status)
	var opened dto.OpenSessionResponse
	require.NoError(a.t, json.Unmarshal(res.Data, &opened))
	a.token = opened.Token
	return opened
}

func (a *vaultAPI) view() dto.SessionResponse {
	a.t.Helper()
	status, res := a.do(http.MethodGet, "/api/notes/v1", nil)
	require.Equal(a.t, fiber.StatusOK, status)
	var view dto.SessionResponse
	require.NoError(a.t, json.Unmarshal(res.Data, &view))
	return view
}

func TestVaultLifecycleOverHTTP(t *testing.T) {
	api := newVaultAPI(t)
	opened := api.open()
	assert.NotEmpty(t, opened.SessionId)

	status, res := api.do(http.MethodPost, "/api/notes/v1", dto.CreateNoteRequest{Title: "Groceries", Content: "Buy milk"})
	require.Equal(t, fiber.StatusCreated, status, res.Message)
	var created dto.OperationResult
	require.NoError(t, json.Unmarshal(res.Data, &created))
	assert.True(t, created.Refreshed)

	view := api.view()
	assert.Equal(t, opened.SessionId, view.SessionId)
	assert.Equal(t, "VIEWING", view.State)
	require.Len(t, view.Notes, 1)
	assert.Equal(t, created.Address, view.Notes[0].Address)

	status, _ = api.do(http.MethodPost, "/api/notes/v1/"+created.Address+"/edit", nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = api.do(http.MethodPut, "/api/notes/v1/edit", dto.UpdateBufferRequest{Content: "Buy milk and eggs"})
	require.Equal(t, fiber.StatusOK, status)
	status, res = api.do(http.MethodPost, "/api/notes/v1/edit/save", nil)
	require.Equal(t, fiber.StatusOK, status, res.Message)

	view = api.view()
	require.Len(t, view.Notes, 1)
	assert.Equal(t, "Buy milk and eggs", view.Notes[0].Content)
	assert.Equal(t, "VIEWING", view.State)

	status, _ = api.do(http.MethodDelete, "/api/notes/v1/"+created.Address, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, api.view().Notes)
}

func TestVaultErrorsOverHTTP(t *testing.T) {
	api := newVaultAPI(t)
	api.open()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		reason string
	}{
		{"empty title", http.MethodPost, "/api/notes/v1", dto.CreateNoteRequest{Content: "x"}, fiber.StatusUnprocessableEntity, "TitleEmpty"},
		{"content too long", http.MethodPost, "/api/notes/v1", dto.CreateNoteRequest{Title: "t", Content: strings.Repeat("a", 1001)}, fiber.StatusUnprocessableEntity, "ContentTooLong"},
		{"save while viewing", http.MethodPost, "/api/notes/v1/edit/save", nil, fiber.StatusConflict, "InvalidState"},
		{"edit unknown note", http.MethodPost, "/api/notes/v1/11111111111111111111111111111111/edit", nil, fiber.StatusNotFound, "NotFound"},
		{"bad address", http.MethodDelete, "/api/notes/v1/not-base58!", nil, fiber.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, res.Success)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestVaultRequiresSession(t *testing.T) {
	api := newVaultAPI(t)

	status, _ := api.do(http.MethodGet, "/api/notes/v1", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	api.token = "garbage"
	status, _ = api.do(http.MethodGet, "/api/notes/v1", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	api.open()
	status, _ = api.do(http.MethodDelete, "/api/session", nil)
	require.Equal(t, fiber.StatusOK, status)

	status, res := api.do(http.MethodGet, "/api/notes/v1", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Session expired", res.Message)
}
