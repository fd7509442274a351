package controller

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"ai-assessment-be/internal/dto"
	"ai-assessment-be/internal/pkg/serverutils"
	"ai-assessment-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const attachmentsField = "attachments"

type IWorkflowController interface {
	RegisterRoutes(r fiber.Router)
	GetState(ctx *fiber.Ctx) error
	SubmitInput(ctx *fiber.Ctx) error
	EnsureTopics(ctx *fiber.Ctx) error
	ChooseTopic(ctx *fiber.Ctx) error
	EnsureFinalDocument(ctx *fiber.Ctx) error
	UpdateDocument(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	UsageHistory(ctx *fiber.Ctx) error
}

type workflowController struct {
	service      service.IWorkflowService
	usageService service.IUsageService
	jwtSecret    string
}

func NewWorkflowController(service service.IWorkflowService, usageService service.IUsageService, jwtSecret string) IWorkflowController {
	return &workflowController{service: service, usageService: usageService, jwtSecret: jwtSecret}
}

func (c *workflowController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/workflow/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("", c.GetState)
	h.Post("/input", c.SubmitInput)
	h.Post("/topics", c.EnsureTopics)
	h.Post("/topics/choose", c.ChooseTopic)
	h.Post("/document", c.EnsureFinalDocument)
	h.Put("/document", c.UpdateDocument)
	h.Get("/export", c.Export)
	h.Post("/reset", c.Reset)
	h.Get("/usage", c.UsageHistory)
}

func sessionIdFrom(ctx *fiber.Ctx) string {
	sessionId, _ := ctx.Locals(serverutils.LocalSessionId).(string)
	return sessionId
}

func (c *workflowController) GetState(ctx *fiber.Ctx) error {
	res, err := c.service.GetState(ctx.Context(), sessionIdFrom(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get workflow state", res))
}

func (c *workflowController) SubmitInput(ctx *fiber.Ctx) error {
	req, err := parseSubmitInput(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.SubmitInput(ctx.Context(), sessionIdFrom(ctx), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success submit input", res))
}

func (c *workflowController) EnsureTopics(ctx *fiber.Ctx) error {
	res, err := c.service.EnsureTopics(ctx.Context(), sessionIdFrom(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success recommend topics", res))
}

func (c *workflowController) ChooseTopic(ctx *fiber.Ctx) error {
	var req dto.ChooseTopicRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.service.ChooseTopic(ctx.Context(), sessionIdFrom(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success choose topic", res))
}

func (c *workflowController) EnsureFinalDocument(ctx *fiber.Ctx) error {
	res, err := c.service.EnsureFinalDocument(ctx.Context(), sessionIdFrom(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate report", res))
}

func (c *workflowController) UpdateDocument(ctx *fiber.Ctx) error {
	var req dto.UpdateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.service.UpdateDocument(ctx.Context(), sessionIdFrom(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update report", res))
}

func (c *workflowController) Export(ctx *fiber.Ctx) error {
	res, err := c.service.Export(ctx.Context(), sessionIdFrom(ctx))
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, res.ContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.FileName))
	return ctx.SendString(res.Body)
}

func (c *workflowController) Reset(ctx *fiber.Ctx) error {
	res, err := c.service.Reset(ctx.Context(), sessionIdFrom(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reset workflow", res))
}

func (c *workflowController) UsageHistory(ctx *fiber.Ctx) error {
	res, err := c.usageService.History(ctx.Context(), sessionIdFrom(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get usage history", res))
}

// parseSubmitInput accepts JSON (attachments base64 encoded) or a
// multipart form with files under "attachments".
func parseSubmitInput(ctx *fiber.Ctx) (*dto.SubmitInputRequest, error) {
	if !strings.HasPrefix(ctx.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var req dto.SubmitInputRequest
		if err := ctx.BodyParser(&req); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		return &req, nil
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid multipart form")
	}

	recommend, _ := strconv.ParseBool(formValue(form, "recommend_enabled"))
	req := &dto.SubmitInputRequest{
		Description:      formValue(form, "description"),
		Subject:          formValue(form, "subject"),
		Level:            formValue(form, "level"),
		Achievement:      formValue(form, "achievement"),
		RecommendEnabled: recommend,
		TopicMode:        formValue(form, "topic_mode"),
		TopicInput:       formValue(form, "topic_input"),
	}

	for _, fh := range form.File[attachmentsField] {
		data, err := readFormFile(fh)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("cannot read attachment %s", fh.Filename))
		}
		req.Attachments = append(req.Attachments, dto.AttachmentDTO{
			Name:     fh.Filename,
			MimeType: detectMimeType(fh),
			Data:     data,
		})
	}

	return req, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// detectMimeType prefers the part header and falls back to the file extension
func detectMimeType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get(fiber.HeaderContentType); ct != "" && ct != fiber.MIMEOctetStream {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			return mediaType
		}
	}
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	}
	return fiber.MIMEOctetStream
}
