package controller

import (
	"notevault/internal/pkg/logger"
	"notevault/pkg/ledger"
	"notevault/pkg/ledger/node"

	"github.com/gofiber/fiber/v2"
)

type ILedgerController interface {
	RegisterRoutes(r fiber.Router)
	Submit(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type ledgerController struct {
	program *node.Program
	logger  logger.ILogger
}

func NewLedgerController(program *node.Program, log logger.ILogger) ILedgerController {
	return &ledgerController{
		program: program,
		logger:  log,
	}
}

func (c *ledgerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1")
	h.Get("health", c.Health)
	h.Post("transactions", c.Submit)
	h.Post("accounts/query", c.Query)
}

func (c *ledgerController) Submit(ctx *fiber.Ctx) error {
	var req ledger.SubmitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return reject(ctx, ledger.NewRemoteError(ledger.CodeInvalidRequest, "malformed transaction body"))
	}

	receipt, err := c.program.Execute(ctx.UserContext(), req.Transaction)
	if err != nil {
		return reject(ctx, ledger.RemoteErrorFrom(err))
	}

	return ctx.JSON(ledger.Envelope[*ledger.Receipt]{Success: true, Data: receipt})
}

func (c *ledgerController) Query(ctx *fiber.Ctx) error {
	var req ledger.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return reject(ctx, ledger.NewRemoteError(ledger.CodeInvalidRequest, "malformed query body"))
	}

	res, err := c.program.Query(ctx.UserContext(), &req)
	if err != nil {
		c.logger.Warn("LedgerController", "Query failed", map[string]interface{}{"error": err.Error()})
		return reject(ctx, ledger.RemoteErrorFrom(err))
	}

	return ctx.JSON(ledger.Envelope[*ledger.QueryResponse]{Success: true, Data: res})
}

func (c *ledgerController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok", "program": c.program.ID().String()})
}

func reject(ctx *fiber.Ctx, remote *ledger.RemoteError) error {
	return ctx.Status(remoteStatus(remote.Code)).JSON(ledger.Envelope[any]{Success: false, Error: remote})
}

func remoteStatus(code int) int {
	switch code {
	case ledger.CodeTitleTooLong, ledger.CodeContentTooLong, ledger.CodeTitleEmpty, ledger.CodeContentEmpty:
		return fiber.StatusUnprocessableEntity
	case ledger.CodeUnauthorized:
		return fiber.StatusForbidden
	case ledger.CodeInvalidSignature:
		return fiber.StatusUnauthorized
	case ledger.CodeNotFound:
		return fiber.StatusNotFound
	case ledger.CodeAddressCollision, ledger.CodeDuplicate:
		return fiber.StatusConflict
	case ledger.CodeInvalidRequest:
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
