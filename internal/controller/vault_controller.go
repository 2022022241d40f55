package controller

import (
	"notevault/internal/config"
	"notevault/internal/dto"
	"notevault/internal/pkg/serverutils"
	"notevault/internal/repository/memory"
	"notevault/internal/service"
	"notevault/pkg/address"
	"notevault/pkg/identity"
	"notevault/pkg/store"

	"github.com/gofiber/fiber/v2"
)

const localSession = "vault_session"

type IVaultController interface {
	RegisterRoutes(r fiber.Router)
	OpenSession(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Refresh(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	BeginEdit(ctx *fiber.Ctx) error
	UpdateBuffer(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	CancelEdit(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type vaultController struct {
	vaultService service.IVaultService
	sessions     *memory.SessionRepository
	owner        identity.PublicKey
	auth         config.AuthConfig
}

// NewVaultController serves sessions for owner, the identity this process
// signs with.
func NewVaultController(vaultService service.IVaultService, sessions *memory.SessionRepository, owner identity.PublicKey, auth config.AuthConfig) IVaultController {
	return &vaultController{
		vaultService: vaultService,
		sessions:     sessions,
		owner:        owner,
		auth:         auth,
	}
}

func (c *vaultController) RegisterRoutes(r fiber.Router) {
	r.Post("/session", c.OpenSession)
	r.Delete("/session", serverutils.JwtMiddleware(c.auth.JWTSecret), c.CloseSession)

	h := r.Group("/notes/v1")
	h.Use(serverutils.JwtMiddleware(c.auth.JWTSecret))
	h.Use(c.loadSession)
	h.Get("", c.Show)
	h.Post("", c.Create)
	h.Post("refresh", c.Refresh)
	h.Put("edit", c.UpdateBuffer)
	h.Post("edit/save", c.Save)
	h.Post("edit/cancel", c.CancelEdit)
	h.Post(":address/edit", c.BeginEdit)
	h.Delete(":address", c.Delete)
}

func (c *vaultController) loadSession(ctx *fiber.Ctx) error {
	sessionID, _ := ctx.Locals(serverutils.LocalSessionID).(string)
	session, ok := c.sessions.Get(sessionID)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Session expired"))
	}
	ctx.Locals(localSession, session)
	return ctx.Next()
}

func session(ctx *fiber.Ctx) *store.Session {
	return ctx.Locals(localSession).(*store.Session)
}

func addressParam(ctx *fiber.Ctx) (address.Address, error) {
	addr, err := address.Parse(ctx.Params("address"))
	if err != nil {
		return address.Address{}, fiber.NewError(fiber.StatusBadRequest, "invalid note address")
	}
	return addr, nil
}

func (c *vaultController) OpenSession(ctx *fiber.Ctx) error {
	s, err := c.vaultService.OpenSession(ctx.UserContext(), c.owner)
	if err != nil {
		return err
	}

	token, expiresAt, err := serverutils.IssueSessionToken(c.auth.JWTSecret, s.ID, s.Owner.String(), c.auth.TokenTTL)
	if err != nil {
		return err
	}
	c.sessions.Save(s)

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session opened", dto.OpenSessionResponse{
		Token:     token,
		SessionId: s.ID,
		Owner:     s.Owner.String(),
		ExpiresAt: expiresAt,
	}))
}

func (c *vaultController) CloseSession(ctx *fiber.Ctx) error {
	sessionID, _ := ctx.Locals(serverutils.LocalSessionID).(string)
	c.sessions.Delete(sessionID)
	return ctx.JSON(serverutils.SuccessResponse("Session closed", nil))
}

func (c *vaultController) Show(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success show vault", c.vaultService.View(session(ctx))))
}

func (c *vaultController) Refresh(ctx *fiber.Ctx) error {
	s := session(ctx)
	if _, err := c.vaultService.Refresh(ctx.UserContext(), s); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success refresh vault", c.vaultService.View(s)))
}

func (c *vaultController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}

	res, err := c.vaultService.Create(ctx.UserContext(), session(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create note", res))
}

func (c *vaultController) BeginEdit(ctx *fiber.Ctx) error {
	addr, err := addressParam(ctx)
	if err != nil {
		return err
	}
	s := session(ctx)
	if err := c.vaultService.BeginEdit(ctx.UserContext(), s, addr); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Editing note", c.vaultService.View(s)))
}

func (c *vaultController) UpdateBuffer(ctx *fiber.Ctx) error {
	var req dto.UpdateBufferRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed body")
	}
	s := session(ctx)
	if err := c.vaultService.SetBuffer(ctx.UserContext(), s, req.Content); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Buffer updated", c.vaultService.View(s)))
}

func (c *vaultController) Save(ctx *fiber.Ctx) error {
	res, err := c.vaultService.Save(ctx.UserContext(), session(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update note", res))
}

func (c *vaultController) CancelEdit(ctx *fiber.Ctx) error {
	s := session(ctx)
	if err := c.vaultService.CancelEdit(ctx.UserContext(), s); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Editing cancelled", c.vaultService.View(s)))
}

func (c *vaultController) Delete(ctx *fiber.Ctx) error {
	addr, err := addressParam(ctx)
	if err != nil {
		return err
	}
	res, err := c.vaultService.Delete(ctx.UserContext(), session(ctx), addr)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete note", res))
}
