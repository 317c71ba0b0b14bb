package service

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"sort"
	"strconv"

	"chromir-be/internal/config"
	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/logger"
	"chromir-be/internal/repository/specification"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/pkg/events"
	"chromir-be/pkg/session"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// SnapClient is the part of snap.Client used for checkout.
type SnapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// NewSnapClient configures a Midtrans Snap client for the configured environment.
func NewSnapClient(cfg config.PaymentConfig) SnapClient {
	env := midtrans.Sandbox
	if cfg.MidtransIsProduction {
		env = midtrans.Production
	}
	var c snap.Client
	c.New(cfg.MidtransServerKey, env)
	return &c
}

type IPurchaseService interface {
	Packages(ctx context.Context) []*dto.TokenPackageResponse
	Checkout(ctx context.Context, sess session.Session, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	// HandleNotification credits a settled purchase exactly once.
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
}

type purchaseService struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     ILedgerService
	snap       SnapClient
	cfg        config.PaymentConfig
	events     *events.Publisher
	logger     logger.ILogger
}

func NewPurchaseService(
	uowFactory unitofwork.RepositoryFactory,
	ledger ILedgerService,
	snapClient SnapClient,
	cfg config.PaymentConfig,
	publisher *events.Publisher,
	log logger.ILogger,
) IPurchaseService {
	return &purchaseService{
		uowFactory: uowFactory,
		ledger:     ledger,
		snap:       snapClient,
		cfg:        cfg,
		events:     publisher,
		logger:     log,
	}
}

// NotificationSignature is SHA512(order_id + status_code + gross_amount + server_key) in hex.
func NotificationSignature(orderId, statusCode, grossAmount, serverKey string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(orderId+statusCode+grossAmount+serverKey)))
}

func (s *purchaseService) Packages(ctx context.Context) []*dto.TokenPackageResponse {
	res := make([]*dto.TokenPackageResponse, 0, len(s.cfg.Packages))
	for code, pkg := range s.cfg.Packages {
		res = append(res, &dto.TokenPackageResponse{Code: code, Tokens: pkg.Tokens, Price: pkg.Price})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Tokens < res[j].Tokens })
	return res
}

func (s *purchaseService) Checkout(ctx context.Context, sess session.Session, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	pkg, ok := s.cfg.Packages[req.Package]
	if !ok {
		return nil, apperror.InvalidInput("unknown token package %q", req.Package)
	}
	if s.cfg.MidtransServerKey == "" {
		return nil, apperror.InvalidState("payments are not configured")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	org, err := uow.OrganizationRepository().FindOne(ctx, specification.ByID{ID: sess.OrganizationId})
	if err != nil {
		return nil, apperror.Persistence("find organization", err)
	}
	if org == nil {
		return nil, apperror.NotFound("organization")
	}

	orderId := uuid.New()
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderId.String(),
			GrossAmt: pkg.Price,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: s.cfg.FinishRedirectURL,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: org.Name,
			Email: sess.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.Package,
				Price: pkg.Price,
				Qty:   1,
				Name:  fmt.Sprintf("%d Chromir tokens", pkg.Tokens),
			},
		},
		CustomField1:    org.Id.String(),
		CustomField2:    req.Package,
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := s.snap.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, apperror.Provider("create snap transaction", fmt.Errorf("%s", midErr.GetMessage()))
	}

	s.logger.Info("PURCHASE", "Checkout created", map[string]interface{}{
		"organization_id": org.Id, "order_id": orderId, "package": req.Package,
	})
	return &dto.CheckoutResponse{
		OrderId:     orderId.String(),
		SnapToken:   snapResp.Token,
		RedirectURL: snapResp.RedirectURL,
		Tokens:      pkg.Tokens,
		Price:       pkg.Price,
	}, nil
}

func (s *purchaseService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	if s.cfg.MidtransServerKey == "" {
		return apperror.InvalidState("payments are not configured")
	}

	expected := NotificationSignature(req.OrderId, req.StatusCode, req.GrossAmount, s.cfg.MidtransServerKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(req.SignatureKey)) != 1 {
		s.logger.Warn("PURCHASE", "Notification signature mismatch", map[string]interface{}{"order_id": req.OrderId})
		return apperror.Unauthorized("invalid notification signature")
	}

	switch req.TransactionStatus {
	case "settlement":
	case "capture":
		if req.FraudStatus != "" && req.FraudStatus != "accept" {
			s.logger.Warn("PURCHASE", "Capture held by fraud check", map[string]interface{}{"order_id": req.OrderId, "fraud_status": req.FraudStatus})
			return nil
		}
	default:
		// pending, deny, cancel, expire: nothing to credit.
		s.logger.Info("PURCHASE", "Notification without settlement", map[string]interface{}{"order_id": req.OrderId, "status": req.TransactionStatus})
		return nil
	}

	orderId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return apperror.InvalidInput("order id must be a uuid")
	}
	orgId, err := uuid.Parse(req.CustomField1)
	if err != nil {
		return apperror.InvalidInput("notification carries no organization")
	}
	pkg, ok := s.cfg.Packages[req.CustomField2]
	if !ok {
		return apperror.InvalidInput("unknown token package %q", req.CustomField2)
	}
	gross, err := strconv.ParseFloat(req.GrossAmount, 64)
	if err != nil || int64(gross) != pkg.Price {
		return apperror.InvalidInput("gross amount %s does not match package price %d", req.GrossAmount, pkg.Price)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return apperror.Persistence("begin purchase credit", err)
	}
	defer uow.Rollback()

	seen, err := uow.TokenTransactionRepository().Count(ctx,
		specification.ByReferenceID{ReferenceID: orderId},
		specification.ByActionType{ActionType: string(entity.TokenActionTokenPurchase)},
	)
	if err != nil {
		return apperror.Persistence("check purchase", err)
	}
	if seen > 0 {
		s.logger.Info("PURCHASE", "Purchase already credited", map[string]interface{}{"order_id": orderId})
		return nil
	}

	if err := s.ledger.CreditWith(ctx, uow, orgId, pkg.Tokens, &orderId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return apperror.Persistence("commit purchase credit", err)
	}

	s.events.PublishTokensCredited(ctx, orgId, pkg.Tokens, &orderId)
	s.logger.Info("PURCHASE", "Tokens credited", map[string]interface{}{"organization_id": orgId, "order_id": orderId, "tokens": pkg.Tokens})
	return nil
}
