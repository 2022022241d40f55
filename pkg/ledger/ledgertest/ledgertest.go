// Package ledgertest runs a ledger node in-process for tests. Requests go
// through the node's real HTTP handlers via fiber's app.Test, so clients
// built here exercise the full wire path without opening a socket.
package ledgertest

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"notevault/internal/controller"
	"notevault/internal/pkg/logger"
	"notevault/pkg/identity"
	"notevault/pkg/ledger/node"
	"notevault/pkg/ledger/rpc"
)

const Endpoint = "http://ledger.test"

type Ledger struct {
	Program *node.Program
	Store   *node.MemoryStore
	App     *fiber.App
}

func New(t testing.TB, opts ...node.Option) *Ledger {
	t.Helper()
	programKey, err := identity.GenerateKeypairSigner()
	require.NoError(t, err)

	store := node.NewMemoryStore()
	program := node.NewProgram(programKey.PublicKey(), store, logger.NewNopLogger(), opts...)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	controller.NewLedgerController(program, logger.NewNopLogger()).RegisterRoutes(app)

	return &Ledger{Program: program, Store: store, App: app}
}

// Doer routes requests into the fiber app.
func (l *Ledger) Doer() rpc.HTTPDoer {
	return doer{app: l.App}
}

// Client returns a gateway that signs as signer.
func (l *Ledger) Client(signer identity.Signer, opts ...rpc.Option) *rpc.Client {
	opts = append([]rpc.Option{rpc.WithHTTPDoer(l.Doer())}, opts...)
	return rpc.NewClient(Endpoint, l.Program.ID(), signer, opts...)
}

type doer struct {
	app *fiber.App
}

func (d doer) Do(req *http.Request) (*http.Response, error) {
	return d.app.Test(req, -1)
}
