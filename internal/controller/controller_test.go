package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"chromir-be/internal/dto"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/serverutils"
	"chromir-be/pkg/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var testSession = session.Session{
	UserId:         uuid.New(),
	OrganizationId: uuid.New(),
	Email:          "owner@acme.test",
	TokenId:        "token-1",
}

func fakeAuth(ctx *fiber.Ctx) error {
	sess := testSession
	serverutils.SetSession(ctx, &sess)
	return ctx.Next()
}

func newApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	register(app.Group("/api"))
	return app
}

func call(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp.StatusCode, env
}

func jsonRequest(method, target string, body any) *http.Request {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type fakeInference struct {
	res *dto.GenerateImageResponse
	err error
	got *dto.GenerateImageRequest
}

func (f *fakeInference) Generate(ctx context.Context, sess session.Session, req *dto.GenerateImageRequest) (*dto.GenerateImageResponse, error) {
	f.got = req
	return f.res, f.err
}

func (f *fakeInference) ListImages(ctx context.Context, sess session.Session, q *dto.ListImagesQuery) ([]*dto.ImageResponse, error) {
	return []*dto.ImageResponse{}, nil
}

func TestImageController_Generate(t *testing.T) {
	modelId := uuid.New()
	imageId := uuid.New()

	t.Run("created", func(t *testing.T) {
		fake := &fakeInference{res: &dto.GenerateImageResponse{Id: &imageId, ModelId: modelId, ImageURL: "https://cdn/x.png", Saved: true}}
		app := newApp(NewImageController(fake, fakeAuth).RegisterRoutes)

		code, env := call(t, app, jsonRequest(http.MethodPost, "/api/image/v1/generate", map[string]any{"model_id": modelId, "prompt": "a chair"}))
		assert.Equal(t, http.StatusCreated, code)
		assert.True(t, env.Success)
		assert.Equal(t, "a chair", fake.got.Prompt)
	})

	t.Run("metadata not saved keeps the image url", func(t *testing.T) {
		fake := &fakeInference{
			res: &dto.GenerateImageResponse{ModelId: modelId, ImageURL: "https://cdn/x.png"},
			err: fmt.Errorf("%w: disk full", apperror.ErrMetadataNotSaved),
		}
		app := newApp(NewImageController(fake, fakeAuth).RegisterRoutes)

		code, env := call(t, app, jsonRequest(http.MethodPost, "/api/image/v1/generate", map[string]any{"model_id": modelId}))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Generated successfully but failed to save metadata", env.Message)

		var data dto.GenerateImageResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "https://cdn/x.png", data.ImageURL)
		assert.False(t, data.Saved)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		fake := &fakeInference{err: apperror.ErrInsufficientFunds}
		app := newApp(NewImageController(fake, fakeAuth).RegisterRoutes)

		code, _ := call(t, app, jsonRequest(http.MethodPost, "/api/image/v1/generate", map[string]any{"model_id": modelId}))
		assert.Equal(t, http.StatusPaymentRequired, code)
	})

	t.Run("model id required", func(t *testing.T) {
		app := newApp(NewImageController(&fakeInference{}, fakeAuth).RegisterRoutes)

		code, env := call(t, app, jsonRequest(http.MethodPost, "/api/image/v1/generate", map[string]any{"prompt": "x"}))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Validation failed", env.Message)
	})
}

type fakeFlow struct {
	archive *dto.CreateModelRequest
	images  *dto.CreateModelFromImagesRequest
	err     error
}

func (f *fakeFlow) CreateFromArchive(ctx context.Context, sess session.Session, req *dto.CreateModelRequest) (*dto.ModelResponse, error) {
	f.archive = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ModelResponse{Id: uuid.New(), Name: req.Name, Status: "completed"}, nil
}

func (f *fakeFlow) CreateFromImages(ctx context.Context, sess session.Session, req *dto.CreateModelFromImagesRequest) (*dto.ModelResponse, error) {
	f.images = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ModelResponse{Id: uuid.New(), Name: req.Name, Status: "completed"}, nil
}

type fakeModels struct{}

func (fakeModels) List(ctx context.Context, sess session.Session, status string) ([]*dto.ModelResponse, error) {
	return []*dto.ModelResponse{}, nil
}

func (fakeModels) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*dto.ModelResponse, error) {
	return nil, apperror.NotFound("model")
}

func (fakeModels) Update(ctx context.Context, sess session.Session, id uuid.UUID, req *dto.UpdateModelRequest) (*dto.ModelResponse, error) {
	return &dto.ModelResponse{Id: id}, nil
}

func (fakeModels) Delete(ctx context.Context, sess session.Session, id uuid.UUID) error {
	return nil
}

func multipartUpload(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, data := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, name))
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/model/v1/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestModelController_Upload(t *testing.T) {
	flow := &fakeFlow{}
	app := newApp(NewModelController(fakeModels{}, flow, fakeAuth).RegisterRoutes)

	req := multipartUpload(t,
		map[string]string{"name": "Chairs", "type": "item"},
		map[string][]byte{"one.png": []byte("png-bytes")},
	)
	code, env := call(t, app, req)
	require.Equal(t, http.StatusCreated, code, env.Message)

	require.NotNil(t, flow.images)
	assert.Equal(t, "Chairs", flow.images.Name)
	assert.Equal(t, "item", flow.images.Type)
	require.Len(t, flow.images.Images, 1)
	assert.Equal(t, "one.png", flow.images.Images[0].FileName)
	assert.Equal(t, "image/png", flow.images.Images[0].ContentType)
	assert.Equal(t, []byte("png-bytes"), flow.images.Images[0].Data)
}

func TestModelController_UploadRequiresImages(t *testing.T) {
	flow := &fakeFlow{}
	app := newApp(NewModelController(fakeModels{}, flow, fakeAuth).RegisterRoutes)

	code, _ := call(t, app, multipartUpload(t, map[string]string{"name": "Chairs", "type": "item"}, nil))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Nil(t, flow.images)
}

func TestModelController_CreateHidesProviderErrors(t *testing.T) {
	flow := &fakeFlow{err: apperror.Provider("train", fmt.Errorf("upstream 503"))}
	app := newApp(NewModelController(fakeModels{}, flow, fakeAuth).RegisterRoutes)

	code, env := call(t, app, jsonRequest(http.MethodPost, "/api/model/v1", map[string]any{
		"name": "Chairs", "type": "item", "zip_url": "https://cdn/x.zip",
	}))
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, createModelFailed, env.Message)
}

func TestModelController_CreateKeepsFundingErrors(t *testing.T) {
	flow := &fakeFlow{err: apperror.ErrInsufficientFunds}
	app := newApp(NewModelController(fakeModels{}, flow, fakeAuth).RegisterRoutes)

	code, env := call(t, app, jsonRequest(http.MethodPost, "/api/model/v1", map[string]any{
		"name": "Chairs", "type": "item", "zip_url": "https://cdn/x.zip",
	}))
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "insufficient funds", env.Message)
}

func TestModelController_ShowAndBadID(t *testing.T) {
	app := newApp(NewModelController(fakeModels{}, &fakeFlow{}, fakeAuth).RegisterRoutes)

	code, _ := call(t, app, httptest.NewRequest(http.MethodGet, "/api/model/v1/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, app, httptest.NewRequest(http.MethodGet, "/api/model/v1/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, code)
}
