package controller

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"chromir-be/internal/dto"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/serverutils"
	"chromir-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	maxTrainingImages = 50
	maxImageBytes     = 10 << 20

	createModelFailed = "Failed to create model, please try again"
)

type IModelController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type modelController struct {
	models service.IModelService
	flow   service.IModelFlowService
	auth   fiber.Handler
}

func NewModelController(models service.IModelService, flow service.IModelFlowService, auth fiber.Handler) IModelController {
	return &modelController{models: models, flow: flow, auth: auth}
}

func (c *modelController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/model/v1")
	h.Use(c.auth)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Post("/upload", c.Upload)
	h.Get("/:id", c.Show)
	h.Put("/:id", c.Update)
	h.Delete("/:id", c.Delete)
}

// flowError keeps validation and funding errors readable and hides everything else.
func flowError(err error) error {
	if errors.Is(err, apperror.ErrInvalidInput) || errors.Is(err, apperror.ErrInsufficientFunds) {
		return err
	}
	return serverutils.WithPublicMessage(err, createModelFailed, nil)
}

func parseID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.InvalidInput("id must be a uuid")
	}
	return id, nil
}

func (c *modelController) List(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}

	var q dto.ListModelsQuery
	if err := ctx.QueryParser(&q); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.models.List(ctx.UserContext(), *sess, q.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get models", res))
}

func (c *modelController) Create(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateModelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.flow.CreateFromArchive(ctx.UserContext(), *sess, &req)
	if err != nil {
		return flowError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Model created", res))
}

func (c *modelController) Upload(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateModelFromImagesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return apperror.InvalidInput("multipart form with images is required")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return apperror.InvalidInput("at least one image is required")
	}
	if len(files) > maxTrainingImages {
		return apperror.InvalidInput("at most %d images are accepted", maxTrainingImages)
	}

	for _, fh := range files {
		img, err := readUpload(fh)
		if err != nil {
			return err
		}
		req.Images = append(req.Images, img)
	}

	res, err := c.flow.CreateFromImages(ctx.UserContext(), *sess, &req)
	if err != nil {
		return flowError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Model created", res))
}

func readUpload(fh *multipart.FileHeader) (dto.UploadedImage, error) {
	if fh.Size > maxImageBytes {
		return dto.UploadedImage{}, apperror.InvalidInput("image %s exceeds %d MB", fh.Filename, maxImageBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return dto.UploadedImage{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return dto.UploadedImage{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return dto.UploadedImage{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (c *modelController) Show(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	res, err := c.models.Get(ctx.UserContext(), *sess, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show model", res))
}

func (c *modelController) Update(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateModelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.models.Update(ctx.UserContext(), *sess, id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Model updated", res))
}

func (c *modelController) Delete(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}
	id, err := parseID(ctx)
	if err != nil {
		return err
	}

	if err := c.models.Delete(ctx.UserContext(), *sess, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Model deleted", nil))
}
