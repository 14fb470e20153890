// FILE: internal/controller/chat_controller.go
package controller

import (
	"crypto/subtle"
	"time"

	"llm-chat-be/internal/dto"
	"llm-chat-be/internal/pkg/apperror"
	"llm-chat-be/internal/pkg/serverutils"
	"llm-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ReclaimerTokenHeader carries the operator secret for the session maintenance routes.
const ReclaimerTokenHeader = "X-Reclaimer-Token"

type IChatController interface {
	RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler)
	RegisterOperatorRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
	OperatorEndSession(ctx *fiber.Ctx) error
	EndStaleSessions(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService      service.IChatService
	admissionService service.IAdmissionService
	reclaimerService service.IReclaimerService
	staleThreshold   time.Duration
	operatorToken    string
}

func NewChatController(
	chatService service.IChatService,
	admissionService service.IAdmissionService,
	reclaimerService service.IReclaimerService,
	staleThreshold time.Duration,
	operatorToken string,
) IChatController {
	return &chatController{
		chatService:      chatService,
		admissionService: admissionService,
		reclaimerService: reclaimerService,
		staleThreshold:   staleThreshold,
		operatorToken:    operatorToken,
	}
}

func (c *chatController) RegisterRoutes(api fiber.Router, jwtMiddleware fiber.Handler) {
	h := api.Group("/chat/v1", jwtMiddleware)
	h.Post("/generate", c.Generate)
	h.Post("/sessions/:id/end", c.EndSession)
}

// RegisterOperatorRoutes mounts the maintenance routes the reclaimer process calls.
func (c *chatController) RegisterOperatorRoutes(r fiber.Router) {
	r.Get("/end-session", c.requireOperator, c.OperatorEndSession)
	r.Get("/end-stale-sessions", c.requireOperator, c.EndStaleSessions)
}

func (c *chatController) Generate(ctx *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.WithMessage(apperror.ErrInvalidRequest, "malformed request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Generate(ctx.UserContext(), serverutils.Owner(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.GenerateResponse{
		Raw:     res.Reply,
		Codes:   res.Codes,
		Success: true,
	})
}

func (c *chatController) EndSession(ctx *fiber.Ctx) error {
	if err := c.admissionService.End(ctx.UserContext(), serverutils.Owner(ctx), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(dto.EndSessionResponse{Success: true})
}

// OperatorEndSession ends any session by id; it answers success:false instead of an
// error status when the session is unknown.
func (c *chatController) OperatorEndSession(ctx *fiber.Ctx) error {
	err := c.admissionService.End(ctx.UserContext(), "", ctx.Query("session_id"))
	if err != nil {
		appErr, ok := apperror.As(err)
		if ok && appErr.Code == apperror.CodeSessionNotFound {
			return ctx.JSON(dto.EndSessionResponse{Success: false})
		}
		return err
	}
	return ctx.JSON(dto.EndSessionResponse{Success: true})
}

func (c *chatController) EndStaleSessions(ctx *fiber.Ctx) error {
	res, err := c.reclaimerService.Sweep(ctx.UserContext(), c.staleThreshold)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.EndStaleSessionsResponse{
		Success:   true,
		Scanned:   res.Scanned,
		Ended:     res.Ended,
		Anomalies: res.Anomalies,
		Skipped:   res.Skipped,
	})
}

func (c *chatController) requireOperator(ctx *fiber.Ctx) error {
	if c.operatorToken == "" {
		return ctx.Next()
	}
	got := ctx.Get(ReclaimerTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(c.operatorToken)) != 1 {
		return apperror.WithMessage(apperror.ErrUnauthorized, "invalid reclaimer token")
	}
	return ctx.Next()
}
