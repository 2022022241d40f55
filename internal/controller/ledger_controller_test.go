package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notevault/pkg/identity"
	"notevault/pkg/ledger"
	"notevault/pkg/ledger/ledgertest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postLedger(t *testing.T, app *fiber.App, path, body string) (int, ledger.Envelope[json.RawMessage]) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env ledger.Envelope[json.RawMessage]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestLedgerHealth(t *testing.T) {
	l := ledgertest.New(t)
	resp, err := l.App.Test(httptest.NewRequest(http.MethodGet, "/v1/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLedgerRejectsBadTransactions(t *testing.T) {
	l := ledgertest.New(t)
	signer, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	unsigned := ledger.NewTransaction(l.Program.ID(), ledger.InstructionDeleteNote, [32]byte{1}, signer.PublicKey(), ledger.NoteArgs{})
	raw, err := json.Marshal(ledger.SubmitRequest{Transaction: unsigned})
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   string
		status int
		code   int
	}{
		{"malformed body", "{", fiber.StatusBadRequest, ledger.CodeInvalidRequest},
		{"missing transaction", "{}", fiber.StatusBadRequest, ledger.CodeInvalidRequest},
		{"unsigned", string(raw), fiber.StatusUnauthorized, ledger.CodeInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := postLedger(t, l.App, "/v1/transactions", tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestLedgerRejectsBadFilter(t *testing.T) {
	l := ledgertest.New(t)
	body := `{"program":"` + l.Program.ID().String() + `","filters":[{"offset":8,"bytes":"0OIl"}]}`
	status, env := postLedger(t, l.App, "/v1/accounts/query", body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, ledger.CodeInvalidRequest, env.Error.Code)
}
