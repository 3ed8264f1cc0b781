package virtualmerchant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
	"github.com/kevin07696/virtualmerchant/internal/domain"
	domainports "github.com/kevin07696/virtualmerchant/internal/domain/ports"
	pkgerrors "github.com/kevin07696/virtualmerchant/pkg/errors"
	"github.com/kevin07696/virtualmerchant/pkg/observability"
	"github.com/kevin07696/virtualmerchant/pkg/timeutil"
)

// Gateway is the VirtualMerchant transaction facade.
// Every operation is one build, sign, send, decode exchange. Nothing is retried.
type Gateway struct {
	endpoint  string
	signer    *Signer
	transport ports.Transport
	logger    *zap.Logger
	metrics   *observability.GatewayMetrics
	now       func() time.Time
}

// Option customizes a Gateway
type Option func(*Gateway)

// WithMetrics records transaction outcomes and latencies
func WithMetrics(m *observability.GatewayMetrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock overrides the clock used for the default batch end date
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// NewGateway creates a gateway for the given credentials.
// A nil transport gets an HTTPTransport built from cfg.
func NewGateway(cfg *Config, creds domain.Credentials, transport ports.Transport, logger *zap.Logger, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		cfg = DefaultConfig(creds.Sandbox)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	signer, err := NewSigner(creds)
	if err != nil {
		return nil, err
	}

	if transport == nil {
		transport = NewHTTPTransport(cfg, nil, logger)
	}

	g := &Gateway{
		endpoint:  EndpointFor(cfg.Sandbox, cfg.Endpoint),
		signer:    signer,
		transport: transport,
		logger:    logger,
		now:       timeutil.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Endpoint returns the URL every transaction is sent to
func (g *Gateway) Endpoint() string {
	return g.endpoint
}

// SubmitTransaction charges a card (ccsale)
func (g *Gateway) SubmitTransaction(ctx context.Context, order *domain.Order, card *domain.CreditCard, prospect *domain.Prospect, fields *domain.PaymentFields) (*domain.TransactionResult, error) {
	return g.charge(ctx, TransactionTypeSale, &BuildRequest{
		Order:      order,
		CreditCard: card,
		Prospect:   prospect,
		Fields:     fields,
	})
}

// AuthorizeTransaction authorizes a card without capturing (ccauthonly)
func (g *Gateway) AuthorizeTransaction(ctx context.Context, order *domain.Order, card *domain.CreditCard, prospect *domain.Prospect, fields *domain.PaymentFields) (*domain.TransactionResult, error) {
	return g.charge(ctx, TransactionTypeAuthOnly, &BuildRequest{
		Order:      order,
		CreditCard: card,
		Prospect:   prospect,
		Fields:     fields,
	})
}

// ChargeCustomer charges a stored token (ccsale with ssl_token) instead of raw card data
func (g *Gateway) ChargeCustomer(ctx context.Context, order *domain.Order, prospect *domain.Prospect, fields *domain.PaymentFields) (*domain.TransactionResult, error) {
	if prospect == nil || prospect.ProfileID == "" {
		return nil, pkgerrors.NewValidationError("profileId", "is required to charge a stored card")
	}
	return g.charge(ctx, TransactionTypeSale, &BuildRequest{
		Order:    order,
		Prospect: prospect,
		Fields:   fields,
		Token:    prospect.ProfileID,
	})
}

func (g *Gateway) charge(ctx context.Context, txType TransactionType, req *BuildRequest) (*domain.TransactionResult, error) {
	decoded, err := g.execute(ctx, txType, req, ShapeCharge)
	if err != nil {
		return nil, err
	}
	return decoded.Result, nil
}

// SettleTransaction settles a prior authorization
func (g *Gateway) SettleTransaction(ctx context.Context, transactionID string, fields *domain.PaymentFields) (*domain.TransactionResult, error) {
	return g.followUp(ctx, TransactionTypeSettle, transactionID, fields, ShapeSettle)
}

// RefundTransaction returns funds against a settled transaction (ccreturn).
// Only the amount and phone from fields are mapped.
func (g *Gateway) RefundTransaction(ctx context.Context, transactionID string, fields *domain.PaymentFields) (*domain.TransactionResult, error) {
	return g.followUp(ctx, TransactionTypeRefund, transactionID, fields, ShapeConfirm)
}

// VoidTransaction voids an unsettled transaction (ccvoid)
func (g *Gateway) VoidTransaction(ctx context.Context, transactionID string, fields *domain.PaymentFields) (*domain.TransactionResult, error) {
	return g.followUp(ctx, TransactionTypeVoid, transactionID, fields, ShapeConfirm)
}

func (g *Gateway) followUp(ctx context.Context, txType TransactionType, transactionID string, fields *domain.PaymentFields, shape ResponseShape) (*domain.TransactionResult, error) {
	if transactionID == "" {
		return nil, pkgerrors.NewValidationError("transactionId", "is required")
	}
	decoded, err := g.execute(ctx, txType, &BuildRequest{
		Fields:        fields,
		TransactionID: transactionID,
	}, shape)
	if err != nil {
		return nil, err
	}
	return decoded.Result, nil
}

// CreateCustomerProfile tokenizes a card (ccgettoken with ssl_add_token=Y).
// The returned ProfileID is a reusable card token, not a gateway-side customer record.
func (g *Gateway) CreateCustomerProfile(ctx context.Context, card *domain.CreditCard, billing *domain.Prospect, shipping *domain.Prospect, fields *domain.PaymentFields) (*domain.TransactionResult, error) {
	if card == nil {
		return nil, pkgerrors.NewValidationError("creditCard", "is required to create a profile")
	}
	decoded, err := g.execute(ctx, TransactionTypeGetToken, &BuildRequest{
		CreditCard: card,
		Prospect:   billing,
		Shipping:   shipping,
		Fields:     fields,
	}, ShapeToken)
	if err != nil {
		return nil, err
	}
	return decoded.Result, nil
}

// GetSettledBatchList lists transactions between from and to (now when nil).
// Range limits are enforced by the gateway, which answers with an error.
func (g *Gateway) GetSettledBatchList(ctx context.Context, from time.Time, to *time.Time) ([]domain.BatchTransaction, error) {
	if from.IsZero() {
		return nil, pkgerrors.NewValidationError("from", "is required")
	}
	end := g.now()
	if to != nil {
		end = *to
	}

	decoded, err := g.execute(ctx, TransactionTypeQuery, &BuildRequest{
		SearchStart: from,
		SearchEnd:   end,
	}, ShapeBatch)
	if err != nil {
		return nil, err
	}

	g.metrics.ObserveBatchSize(len(decoded.Batch))
	return decoded.Batch, nil
}

// execute runs build, sign, send and decode for one transaction
func (g *Gateway) execute(ctx context.Context, txType TransactionType, req *BuildRequest, shape ResponseShape) (*DecodedResponse, error) {
	logger := g.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("transaction_type", string(txType)),
		zap.String("merchant_id", g.signer.MerchantID()),
	)

	payload, err := BuildPayload(txType, req)
	if err != nil {
		logger.Warn("Transaction rejected before transmission", zap.Error(err))
		g.record(txType, err)
		return nil, err
	}

	signed := g.signer.Sign(payload)

	start := time.Now()
	raw, err := g.transport.Send(ctx, g.endpoint, signed)
	elapsed := time.Since(start)
	g.metrics.ObserveDuration(string(txType), elapsed.Seconds())
	if err != nil {
		logger.Error("Gateway transport failed",
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		g.metrics.RecordTransaction(string(txType), observability.OutcomeTransport)
		return nil, err
	}

	decoded, err := DecodeResponse(raw, shape)
	if err != nil {
		if gwErr, ok := domain.AsGatewayError(err); ok && gwErr.Kind == domain.KindGateway {
			logger.Info("Gateway declined transaction",
				zap.String("error_code", gwErr.Code),
				zap.String("message", gwErr.Message),
				zap.Duration("elapsed", elapsed),
			)
		} else {
			logger.Error("Failed to decode gateway response",
				zap.String("shape", shape.String()),
				zap.Int("bytes", len(raw)),
				zap.Error(err),
			)
		}
		g.record(txType, err)
		return nil, err
	}

	fields := []zap.Field{zap.Duration("elapsed", elapsed)}
	if decoded.Result != nil && decoded.Result.TransactionID != "" {
		fields = append(fields, zap.String("txn_id", decoded.Result.TransactionID))
	}
	if decoded.Batch != nil {
		fields = append(fields, zap.Int("count", len(decoded.Batch)))
	}
	logger.Info("Gateway transaction succeeded", fields...)
	g.record(txType, nil)

	return decoded, nil
}

func (g *Gateway) record(txType TransactionType, err error) {
	g.metrics.RecordTransaction(string(txType), outcomeFor(err))
}

// outcomeFor maps an operation result to a metrics outcome label
func outcomeFor(err error) string {
	switch domain.Categorize(err) {
	case pkgerrors.CategoryApproved:
		return observability.OutcomeApproved
	case pkgerrors.CategoryDeclined:
		return observability.OutcomeDeclined
	case pkgerrors.CategoryLocalPolicy:
		return observability.OutcomeRejected
	case pkgerrors.CategorySystemError:
		return observability.OutcomeProtocol
	case pkgerrors.CategoryInvalidRequest:
		return observability.OutcomeInvalid
	default:
		return observability.OutcomeTransport
	}
}

var _ domainports.Gateway = (*Gateway)(nil)
