package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chromir-be/internal/pkg/apperror"
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

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"invalid input", apperror.InvalidInput("name is required"), 400, "invalid input: name is required"},
		{"insufficient", apperror.ErrInsufficientFunds, 402, "insufficient funds"},
		{"not found", apperror.NotFound("model"), 404, "not found: model"},
		{"state", apperror.InvalidState("model has no artifact"), 409, "invalid state: model has no artifact"},
		{"provider", apperror.Provider("train", errors.New("boom")), 502, "provider error: train: boom"},
		{"public", WithPublicMessage(apperror.Provider("train", errors.New("boom")), "Failed to create model, please try again", nil), 502, "Failed to create model, please try again"},
		{"internal hidden", errors.New("dial tcp: refused"), 500, "Internal server error"},
		{"fiber", fiber.NewError(fiber.StatusTeapot, "short and stout"), 418, "short and stout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			env := decode(t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Email string `json:"email" validate:"required,email"`
		Type  string `json:"type" validate:"required,oneof=category collection item"`
	}

	assert.NoError(t, ValidateRequest(req{Email: "a@b.co", Type: "item"}))

	err := ValidateRequest(req{Email: "nope", Type: "chair"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "email", verr.Fields[0].Field)
	assert.Equal(t, "type", verr.Fields[1].Field)
}

func TestJwtMiddleware(t *testing.T) {
	issuer := session.NewTokenIssuer("secret", time.Hour)
	denylist := session.NewDenylist(nil)

	app := fiber.New()
	app.Use(NewJwtMiddleware(issuer, denylist))
	app.Get("/me", func(c *fiber.Ctx) error {
		sess, err := CurrentSession(c)
		if err != nil {
			return err
		}
		return c.JSON(SuccessResponse("ok", sess.OrganizationId))
	})

	orgId := uuid.New()
	token, claims, err := issuer.Issue(uuid.New(), orgId, "a@b.co")
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		env := decode(t, resp)
		assert.JSONEq(t, `"`+orgId.String()+`"`, string(env.Data))
	})

	t.Run("missing", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("signed out", func(t *testing.T) {
		require.NoError(t, denylist.Revoke(t.Context(), claims.Session.TokenId, claims.ExpiresAt))

		req := httptest.NewRequest(http.MethodGet, "/me?token="+token, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
		assert.Equal(t, "Session has been signed out", decode(t, resp).Message)
	})
}
