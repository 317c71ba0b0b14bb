package controller

import (
	"chromir-be/internal/dto"
	"chromir-be/internal/pkg/serverutils"
	"chromir-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITokenController interface {
	RegisterRoutes(r fiber.Router)
	Balance(ctx *fiber.Ctx) error
	Transactions(ctx *fiber.Ctx) error
	Packages(ctx *fiber.Ctx) error
	Checkout(ctx *fiber.Ctx) error
	Notification(ctx *fiber.Ctx) error
}

type tokenController struct {
	ledger   service.ILedgerService
	purchase service.IPurchaseService
	auth     fiber.Handler
}

func NewTokenController(ledger service.ILedgerService, purchase service.IPurchaseService, auth fiber.Handler) ITokenController {
	return &tokenController{ledger: ledger, purchase: purchase, auth: auth}
}

func (c *tokenController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/token/v1")
	// Called by Midtrans, authenticated by signature.
	h.Post("/notification", c.Notification)

	h.Get("/balance", c.auth, c.Balance)
	h.Get("/transactions", c.auth, c.Transactions)
	h.Get("/packages", c.auth, c.Packages)
	h.Post("/checkout", c.auth, c.Checkout)
}

func (c *tokenController) Balance(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}

	tokens, err := c.ledger.Balance(ctx.UserContext(), sess.OrganizationId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get balance", dto.BalanceResponse{
		OrganizationId: sess.OrganizationId,
		Tokens:         tokens,
	}))
}

func (c *tokenController) Transactions(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}

	var q dto.PageQuery
	if err := ctx.QueryParser(&q); err != nil {
		return err
	}

	txs, err := c.ledger.ListTransactions(ctx.UserContext(), sess.OrganizationId, q.Limit, q.Offset)
	if err != nil {
		return err
	}

	res := make([]dto.TokenTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		res = append(res, dto.TokenTransactionResponse{
			Id:          tx.Id,
			Amount:      tx.Amount,
			ActionType:  string(tx.ActionType),
			ReferenceId: tx.ReferenceId,
			CreatedAt:   tx.CreatedAt,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get transactions", res))
}

func (c *tokenController) Packages(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get packages", c.purchase.Packages(ctx.UserContext())))
}

func (c *tokenController) Checkout(ctx *fiber.Ctx) error {
	sess, err := serverutils.CurrentSession(ctx)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.purchase.Checkout(ctx.UserContext(), *sess, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout created", res))
}

func (c *tokenController) Notification(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.purchase.HandleNotification(ctx.UserContext(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Notification processed", nil))
}
