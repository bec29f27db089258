package controller

import (
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/pkg/serverutils"
	"ai-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	BuildContext(ctx *fiber.Ctx) error
	ListThreads(ctx *fiber.Ctx) error
	CreateThread(ctx *fiber.Ctx) error
	AppendMessage(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	IndexDocument(ctx *fiber.Ctx) error
	UpdateSettings(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	auth             fiber.Handler
}

func NewAssistantController(assistantService service.IAssistantService, auth fiber.Handler) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		auth:             auth,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Use(c.auth)
	h.Post("context", c.BuildContext)
	h.Get("threads", c.ListThreads)
	h.Post("threads", c.CreateThread)
	h.Post("threads/:id/messages", c.AppendMessage)
	h.Get("threads/:id/history", c.GetHistory)
	h.Post("documents", c.IndexDocument)
	h.Put("settings", c.UpdateSettings)
}

func userIdFrom(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user")
	}
	return userId, nil
}

func threadIdFrom(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid thread id")
	}
	return id, nil
}

func (c *assistantController) BuildContext(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.BuildContextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.BuildContext(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success build context", res))
}

func (c *assistantController) CreateThread(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateThreadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.CreateThread(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create thread", res))
}

func (c *assistantController) ListThreads(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.assistantService.ListThreads(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list threads", res))
}

func (c *assistantController) AppendMessage(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}
	threadId, err := threadIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.AppendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.ThreadId = threadId
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.AppendMessage(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success append message", res))
}

func (c *assistantController) GetHistory(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}
	threadId, err := threadIdFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.assistantService.GetHistory(ctx.UserContext(), userId, threadId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *assistantController) IndexDocument(ctx *fiber.Ctx) error {
	var req dto.IndexDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.IndexDocument(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Document queued for indexing", res))
}

func (c *assistantController) UpdateSettings(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.UpdateSettings(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update settings", res))
}
