package controller

import (
	"errors"

	"chromir-be/internal/dto"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/serverutils"
	"chromir-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IImageController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type imageController struct {
	inference service.IInferenceService
	auth      fiber.Handler
}

func NewImageController(inference service.IInferenceService, auth fiber.Handler) IImageController {
	return &imageController{inference: inference, auth: auth}
}

func (c *imageController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/image/v1")
	h.Use(c.auth)
	h.Post("/generate", c.Generate)
	h.Get("", c.List)
}

func (c *imageController) Generate(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}

	var req dto.GenerateImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.inference.Generate(ctx.UserContext(), *sess, &req)
	if err != nil {
		// The image exists at the provider; hand its URL back with the error.
		if errors.Is(err, apperror.ErrMetadataNotSaved) {
			return serverutils.WithPublicMessage(err, "Generated successfully but failed to save metadata", res)
		}
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Image generated", res))
}

func (c *imageController) List(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}

	var q dto.ListImagesQuery
	if err := ctx.QueryParser(&q); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.inference.ListImages(ctx.UserContext(), *sess, &q)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get images", res))
}
