package service

import (
	"context"
	"sync"
	"testing"

	"chromir-be/internal/config"
	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/pkg/events"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

type fakeSnap struct {
	requests []*snap.Request
	err      *midtrans.Error
}

func (f *fakeSnap) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &snap.Response{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.test/snap/v2/vtweb/snap-token"}, nil
}

func newPurchaseFixture(t *testing.T) (*testEnv, *fakeSnap, IPurchaseService) {
	env := newTestEnv(t)
	fake := &fakeSnap{}
	svc := NewPurchaseService(env.factory, env.ledger, fake, config.PaymentConfig{
		MidtransServerKey: testServerKey,
		FinishRedirectURL: "https://app.test/settings",
		Packages: map[string]config.TokenPackage{
			"small":  {Tokens: 100, Price: 50000},
			"medium": {Tokens: 500, Price: 200000},
		},
	}, env.events, env.log)
	return env, fake, svc
}

func settlement(orgId uuid.UUID, orderId, pkg, gross string) *dto.MidtransWebhookRequest {
	return &dto.MidtransWebhookRequest{
		TransactionStatus: "settlement",
		OrderId:           orderId,
		StatusCode:        "200",
		GrossAmount:       gross,
		SignatureKey:      NotificationSignature(orderId, "200", gross, testServerKey),
		CustomField1:      orgId.String(),
		CustomField2:      pkg,
	}
}

func TestPurchase_PackagesSortedByTokens(t *testing.T) {
	_, _, svc := newPurchaseFixture(t)

	pkgs := svc.Packages(context.Background())

	require.Len(t, pkgs, 2)
	assert.Equal(t, "small", pkgs[0].Code)
	assert.Equal(t, "medium", pkgs[1].Code)
}

func TestPurchase_CheckoutCarriesOrganizationAndPackage(t *testing.T) {
	env, fake, svc := newPurchaseFixture(t)
	org := env.createOrg(t, 100)

	res, err := svc.Checkout(context.Background(), sessionFor(org), &dto.CheckoutRequest{Package: "medium"})
	require.NoError(t, err)

	assert.Equal(t, "snap-token", res.SnapToken)
	assert.Equal(t, 500, res.Tokens)
	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, res.OrderId, req.TransactionDetails.OrderID)
	assert.LessOrEqual(t, len(req.TransactionDetails.OrderID), 50)
	assert.Equal(t, int64(200000), req.TransactionDetails.GrossAmt)
	assert.Equal(t, org.Id.String(), req.CustomField1)
	assert.Equal(t, "medium", req.CustomField2)
	// Checkout alone never moves the balance.
	assert.Equal(t, 100, env.balance(t, org.Id))
}

func TestPurchase_CheckoutRejectsUnknownPackage(t *testing.T) {
	env, fake, svc := newPurchaseFixture(t)
	org := env.createOrg(t, 100)

	_, err := svc.Checkout(context.Background(), sessionFor(org), &dto.CheckoutRequest{Package: "huge"})

	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Empty(t, fake.requests)
}

func TestPurchase_CheckoutProviderError(t *testing.T) {
	env, fake, svc := newPurchaseFixture(t)
	fake.err = &midtrans.Error{Message: "gateway down", StatusCode: 503}
	org := env.createOrg(t, 100)

	_, err := svc.Checkout(context.Background(), sessionFor(org), &dto.CheckoutRequest{Package: "small"})

	assert.ErrorIs(t, err, apperror.ErrProvider)
}

func TestPurchase_SettlementCreditsExactlyOnce(t *testing.T) {
	env, _, svc := newPurchaseFixture(t)
	org := env.createOrg(t, 100)
	orderId := uuid.NewString()
	note := settlement(org.Id, orderId, "small", "50000.00")

	require.NoError(t, svc.HandleNotification(context.Background(), note))
	require.NoError(t, svc.HandleNotification(context.Background(), note))

	assert.Equal(t, 200, env.balance(t, org.Id))
	txs := env.transactions(t, org.Id)
	require.Len(t, txs, 1)
	assert.Equal(t, 100, txs[0].Amount)
	assert.Equal(t, entity.TokenActionTokenPurchase, txs[0].ActionType)
	assert.Equal(t, orderId, txs[0].ReferenceId.String())
	assert.Equal(t, []string{events.TypeTokensCredited}, env.sink.types())
}

func TestPurchase_ConcurrentDeliveriesCreditOnce(t *testing.T) {
	env, _, svc := newPurchaseFixture(t)
	org := env.createOrg(t, 100)
	note := settlement(org.Id, uuid.NewString(), "small", "50000.00")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.HandleNotification(context.Background(), note)
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, env.balance(t, org.Id))
	assert.Len(t, env.transactions(t, org.Id), 1)
}

func TestPurchase_NotificationRejections(t *testing.T) {
	env, _, svc := newPurchaseFixture(t)
	org := env.createOrg(t, 100)

	forged := settlement(org.Id, uuid.NewString(), "small", "50000.00")
	forged.SignatureKey = NotificationSignature(forged.OrderId, "200", forged.GrossAmount, "wrong-key")

	underpaid := settlement(org.Id, uuid.NewString(), "medium", "50000.00")

	tests := []struct {
		name string
		req  *dto.MidtransWebhookRequest
		kind error
	}{
		{"forged signature", forged, apperror.ErrUnauthorized},
		{"amount does not match package", underpaid, apperror.ErrInvalidInput},
		{"unknown package", settlement(org.Id, uuid.NewString(), "huge", "50000.00"), apperror.ErrInvalidInput},
		{"unknown organization", settlement(uuid.New(), uuid.NewString(), "small", "50000.00"), apperror.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.HandleNotification(context.Background(), tt.req), tt.kind)
		})
	}
	assert.Equal(t, 100, env.balance(t, org.Id))
}

func TestPurchase_NonSettledStatusesAreIgnored(t *testing.T) {
	env, _, svc := newPurchaseFixture(t)
	org := env.createOrg(t, 100)

	for _, status := range []string{"pending", "deny", "cancel", "expire"} {
		note := settlement(org.Id, uuid.NewString(), "small", "50000.00")
		note.TransactionStatus = status
		require.NoError(t, svc.HandleNotification(context.Background(), note))
	}

	challenged := settlement(org.Id, uuid.NewString(), "small", "50000.00")
	challenged.TransactionStatus = "capture"
	challenged.FraudStatus = "challenge"
	require.NoError(t, svc.HandleNotification(context.Background(), challenged))

	accepted := settlement(org.Id, uuid.NewString(), "small", "50000.00")
	accepted.TransactionStatus = "capture"
	accepted.FraudStatus = "accept"
	require.NoError(t, svc.HandleNotification(context.Background(), accepted))

	assert.Equal(t, 200, env.balance(t, org.Id))
}
