package ports

import (
	"context"
	"time"

	"github.com/kevin07696/virtualmerchant/internal/domain"
)

// Gateway defines the card gateway capabilities.
// Every call is a single stateless request/response exchange; nothing is retried.
// Failures are *domain.GatewayError (local policy, protocol, gateway-reported),
// *errors.ValidationError for missing inputs, or the transport error unchanged.
type Gateway interface {
	// SubmitTransaction authorizes and captures a card payment (ccsale)
	SubmitTransaction(ctx context.Context, order *domain.Order, card *domain.CreditCard, prospect *domain.Prospect, fields *domain.PaymentFields) (*domain.TransactionResult, error)

	// AuthorizeTransaction authorizes without capturing (ccauthonly)
	AuthorizeTransaction(ctx context.Context, order *domain.Order, card *domain.CreditCard, prospect *domain.Prospect, fields *domain.PaymentFields) (*domain.TransactionResult, error)

	// SettleTransaction settles a previously authorized transaction
	SettleTransaction(ctx context.Context, transactionID string, fields *domain.PaymentFields) (*domain.TransactionResult, error)

	// RefundTransaction returns funds for a settled transaction (ccreturn)
	RefundTransaction(ctx context.Context, transactionID string, fields *domain.PaymentFields) (*domain.TransactionResult, error)

	// VoidTransaction cancels an unsettled transaction (ccvoid)
	VoidTransaction(ctx context.Context, transactionID string, fields *domain.PaymentFields) (*domain.TransactionResult, error)

	// CreateCustomerProfile tokenizes a card (ccgettoken). The returned ProfileID is a
	// reusable card token, not a customer record on the gateway.
	CreateCustomerProfile(ctx context.Context, card *domain.CreditCard, billing, shipping *domain.Prospect, fields *domain.PaymentFields) (*domain.TransactionResult, error)

	// ChargeCustomer charges a token obtained from CreateCustomerProfile
	ChargeCustomer(ctx context.Context, order *domain.Order, prospect *domain.Prospect, fields *domain.PaymentFields) (*domain.TransactionResult, error)

	// GetSettledBatchList lists transactions between from and to (to defaults to now)
	GetSettledBatchList(ctx context.Context, from time.Time, to *time.Time) ([]domain.BatchTransaction, error)
}
