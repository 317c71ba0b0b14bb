package dto

type TokenPackageResponse struct {
	Code   string `json:"code"`
	Tokens int    `json:"tokens"`
	Price  int64  `json:"price"`
}

type CheckoutRequest struct {
	Package string `json:"package" validate:"required"`
}

type CheckoutResponse struct {
	OrderId     string `json:"order_id"`
	SnapToken   string `json:"snap_token"`
	RedirectURL string `json:"redirect_url"`
	Tokens      int    `json:"tokens"`
	Price       int64  `json:"price"`
}

type MidtransWebhookRequest struct {
	TransactionStatus string `json:"transaction_status"`
	OrderId           string `json:"order_id"`
	FraudStatus       string `json:"fraud_status"`
	// Signature validation fields
	SignatureKey string `json:"signature_key"`
	StatusCode   string `json:"status_code"`
	GrossAmount  string `json:"gross_amount"`
	// Echoed back from checkout: organization id and package code.
	CustomField1 string `json:"custom_field1"`
	CustomField2 string `json:"custom_field2"`
}
