package virtualmerchant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
	"github.com/kevin07696/virtualmerchant/internal/domain"
	"github.com/kevin07696/virtualmerchant/internal/testutil/fixtures"
	"github.com/kevin07696/virtualmerchant/internal/testutil/mocks"
	pkgerrors "github.com/kevin07696/virtualmerchant/pkg/errors"
	"github.com/kevin07696/virtualmerchant/pkg/observability"
)

// newTestGateway creates a gateway over a mock transport
func newTestGateway(t *testing.T, opts ...Option) (*Gateway, *mocks.MockTransport) {
	t.Helper()
	transport := new(mocks.MockTransport)
	gw, err := NewGateway(DefaultConfig(true), fixtures.DemoCredentials(), transport, zap.NewNop(), opts...)
	require.NoError(t, err)
	return gw, transport
}

// payloadWith matches a payload carrying every given field
func payloadWith(fields map[string]string) interface{} {
	return mock.MatchedBy(func(p ports.Payload) bool {
		for k, v := range fields {
			if p[k] != v {
				return false
			}
		}
		return true
	})
}

func TestNewGateway_InvalidCredentials(t *testing.T) {
	gw, err := NewGateway(nil, domain.Credentials{UserID: "webpage", Pin: "x"}, new(mocks.MockTransport), zap.NewNop())

	assert.Nil(t, gw)
	assert.EqualError(t, err, "MERCHANT_ID must be defined")
}

func TestNewGateway_EndpointSelection(t *testing.T) {
	creds := fixtures.DemoCredentials()

	gw, err := NewGateway(DefaultConfig(true), creds, new(mocks.MockTransport), nil)
	require.NoError(t, err)
	assert.Equal(t, SandboxEndpoint, gw.Endpoint())

	gw, err = NewGateway(DefaultConfig(false), creds, new(mocks.MockTransport), nil)
	require.NoError(t, err)
	assert.Equal(t, ProductionEndpoint, gw.Endpoint())

	cfg := DefaultConfig(true)
	cfg.Endpoint = "http://localhost:8080/processxml.do"
	gw, err = NewGateway(cfg, creds, new(mocks.MockTransport), nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/processxml.do", gw.Endpoint())
}

func TestGateway_SubmitTransaction(t *testing.T) {
	gw, transport := newTestGateway(t)

	transport.On("Send", mock.Anything, SandboxEndpoint, payloadWith(map[string]string{
		"ssl_transaction_type": "ccsale",
		"ssl_amount":           "42.00",
		"ssl_card_number":      fixtures.VisaNumber,
		"ssl_exp_date":         "1217",
		"ssl_merchant_id":      fixtures.DemoMerchantID,
		"ssl_user_id":          fixtures.DemoUserID,
		"ssl_pin":              fixtures.DemoPin,
	})).Return([]byte(approvedSale), nil).Once()

	result, err := gw.SubmitTransaction(context.Background(), fixtures.Order("42.00"), fixtures.VisaCard(), fixtures.Prospect(), nil)
	require.NoError(t, err)

	assert.Equal(t, "150315A15-1234", result.TransactionID)
	assert.Equal(t, "CMC142", result.AuthCode)
	assert.Equal(t, "APPROVAL", result.Original.Get("ssl_result_message"))
	transport.AssertExpectations(t)
}

func TestGateway_AuthorizeTransaction(t *testing.T) {
	gw, transport := newTestGateway(t)

	transport.On("Send", mock.Anything, SandboxEndpoint, payloadWith(map[string]string{
		"ssl_transaction_type": "ccauthonly",
	})).Return([]byte(approvedSale), nil).Once()

	result, err := gw.AuthorizeTransaction(context.Background(), fixtures.Order("42.00"), fixtures.VisaCard(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "CMC142", result.AuthCode)
	transport.AssertExpectations(t)
}

func TestGateway_RestrictedCardNeverReachesTransport(t *testing.T) {
	gw, transport := newTestGateway(t)
	ctx := context.Background()

	_, err := gw.SubmitTransaction(ctx, fixtures.Order("1.00"), fixtures.RestrictedCard(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrRestrictedCard)

	_, err = gw.AuthorizeTransaction(ctx, fixtures.Order("1.00"), fixtures.RestrictedCard(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrRestrictedCard)

	_, err = gw.CreateCustomerProfile(ctx, fixtures.RestrictedCard(), nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrRestrictedCard)
	assert.True(t, domain.IsLocalPolicyError(err))
	assert.False(t, domain.IsRetriable(err))

	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	transport.AssertNumberOfCalls(t, "Send", 0)
}

func TestGateway_FollowUpsRequireTransactionID(t *testing.T) {
	gw, transport := newTestGateway(t)
	ctx := context.Background()

	ops := map[string]func() (*domain.TransactionResult, error){
		"settle": func() (*domain.TransactionResult, error) { return gw.SettleTransaction(ctx, "", nil) },
		"refund": func() (*domain.TransactionResult, error) { return gw.RefundTransaction(ctx, "", nil) },
		"void":   func() (*domain.TransactionResult, error) { return gw.VoidTransaction(ctx, "", nil) },
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			result, err := op()
			assert.Nil(t, result)

			var validationErr *pkgerrors.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "transactionId", validationErr.Field)
		})
	}
	transport.AssertNumberOfCalls(t, "Send", 0)
}

func TestGateway_RefundTransaction(t *testing.T) {
	gw, transport := newTestGateway(t)

	transport.On("Send", mock.Anything, SandboxEndpoint, payloadWith(map[string]string{
		"ssl_transaction_type": "ccreturn",
		"ssl_txn_id":           "150315A15-1234",
		"ssl_amount":           "10.00",
	})).Return([]byte(`<txn><ssl_result>0</ssl_result><ssl_result_message>APPROVAL</ssl_result_message><ssl_txn_id>NEW-1</ssl_txn_id></txn>`), nil).Once()

	result, err := gw.RefundTransaction(context.Background(), "150315A15-1234", &domain.PaymentFields{
		Amount: decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	assert.Empty(t, result.TransactionID)
	assert.Equal(t, "NEW-1", result.Original.Get("ssl_txn_id"))
	transport.AssertExpectations(t)
}

func TestGateway_RefundInvalidTransactionID(t *testing.T) {
	gw, transport := newTestGateway(t)

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything).Return([]byte(
		`<txn><errorCode>5040</errorCode><errorName>Invalid Transaction ID</errorName>`+
			`<errorMessage>The transaction ID is invalid for this transaction type</errorMessage></txn>`), nil)

	_, err := gw.RefundTransaction(context.Background(), "-666", nil)

	gwErr, ok := domain.AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindGateway, gwErr.Kind)
	assert.Equal(t, "The transaction ID is invalid for this transaction type", gwErr.Message)
	assert.Equal(t, "5040", gwErr.Original.Get("errorCode"))
}

func TestGateway_VoidAndSettle(t *testing.T) {
	gw, transport := newTestGateway(t)
	body := []byte(`<txn><ssl_result>0</ssl_result><ssl_txn_id>T-9</ssl_txn_id></txn>`)

	transport.On("Send", mock.Anything, mock.Anything, payloadWith(map[string]string{"ssl_transaction_type": "ccvoid"})).Return(body, nil).Once()
	transport.On("Send", mock.Anything, mock.Anything, payloadWith(map[string]string{"ssl_transaction_type": "settle"})).Return(body, nil).Once()

	voided, err := gw.VoidTransaction(context.Background(), "T-9", nil)
	require.NoError(t, err)
	assert.Empty(t, voided.TransactionID)

	settled, err := gw.SettleTransaction(context.Background(), "T-9", nil)
	require.NoError(t, err)
	assert.Equal(t, "T-9", settled.TransactionID)

	transport.AssertExpectations(t)
}

func TestGateway_CreateCustomerProfile(t *testing.T) {
	gw, transport := newTestGateway(t)

	transport.On("Send", mock.Anything, mock.Anything, payloadWith(map[string]string{
		"ssl_transaction_type": "ccgettoken",
		"ssl_add_token":        "Y",
		"ssl_ship_to_zip":      "3212",
	})).Return([]byte(`<txn><ssl_result>0</ssl_result><ssl_token>4421000000000001</ssl_token></txn>`), nil).Once()

	prospect := fixtures.Prospect()
	result, err := gw.CreateCustomerProfile(context.Background(), fixtures.VisaCard(), prospect, prospect, nil)
	require.NoError(t, err)

	assert.Equal(t, "4421000000000001", result.ProfileID)
	transport.AssertExpectations(t)
}

func TestGateway_CreateCustomerProfileRequiresCard(t *testing.T) {
	gw, transport := newTestGateway(t)

	_, err := gw.CreateCustomerProfile(context.Background(), nil, nil, nil, nil)

	var validationErr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	transport.AssertNumberOfCalls(t, "Send", 0)
}

func TestGateway_ChargeCustomer(t *testing.T) {
	gw, transport := newTestGateway(t)

	transport.On("Send", mock.Anything, mock.Anything, payloadWith(map[string]string{
		"ssl_transaction_type": "ccsale",
		"ssl_token":            "4421000000000001",
		"ssl_amount":           "15.00",
	})).Return([]byte(approvedSale), nil).Once()

	result, err := gw.ChargeCustomer(context.Background(), fixtures.Order("15.00"), &domain.Prospect{ProfileID: "4421000000000001"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.TransactionID)
	transport.AssertExpectations(t)

	_, err = gw.ChargeCustomer(context.Background(), fixtures.Order("15.00"), &domain.Prospect{}, nil)
	var validationErr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "profileId", validationErr.Field)
}

func TestGateway_GetSettledBatchList(t *testing.T) {
	now := time.Date(2015, 3, 15, 18, 30, 0, 0, time.UTC)
	gw, transport := newTestGateway(t, WithClock(func() time.Time { return now }))

	transport.On("Send", mock.Anything, mock.Anything, payloadWith(map[string]string{
		"ssl_transaction_type":  "txnquery",
		"ssl_search_start_date": "03/01/2015",
		"ssl_search_end_date":   "03/15/2015",
	})).Return([]byte(`<txnlist><ssl_txn_count>1</ssl_txn_count><txn><ssl_txn_id>A</ssl_txn_id></txn></txnlist>`), nil).Once()

	batch, err := gw.GetSettledBatchList(context.Background(), time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	require.Len(t, batch, 1)
	assert.Equal(t, "A", batch[0].TransactionID())
	transport.AssertExpectations(t)
}

func TestGateway_GetSettledBatchListExplicitEnd(t *testing.T) {
	gw, transport := newTestGateway(t)
	end := time.Date(2015, 3, 10, 0, 0, 0, 0, time.UTC)

	transport.On("Send", mock.Anything, mock.Anything, payloadWith(map[string]string{
		"ssl_search_end_date": "03/10/2015",
	})).Return([]byte(`<txnlist><ssl_txn_count>0</ssl_txn_count></txnlist>`), nil).Once()

	batch, err := gw.GetSettledBatchList(context.Background(), time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC), &end)
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.NotNil(t, batch)
}

func TestGateway_GetSettledBatchListRequiresStart(t *testing.T) {
	gw, transport := newTestGateway(t)

	batch, err := gw.GetSettledBatchList(context.Background(), time.Time{}, nil)

	assert.Nil(t, batch)
	var validationErr *pkgerrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "from", validationErr.Field)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestGateway_ChargeCustomerRestrictedCardInFields(t *testing.T) {
	gw, transport := newTestGateway(t)

	_, err := gw.ChargeCustomer(context.Background(), fixtures.Order("1.00"),
		&domain.Prospect{ProfileID: "4421000000000001"},
		&domain.PaymentFields{Extra: map[string]string{"ssl_card_number": domain.RestrictedTestCardNumber}})

	assert.ErrorIs(t, err, domain.ErrRestrictedCard)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestGateway_TransportErrorPassesThrough(t *testing.T) {
	gw, transport := newTestGateway(t)
	netErr := errors.New("dial tcp: i/o timeout")

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil, netErr).Once()

	_, err := gw.SubmitTransaction(context.Background(), fixtures.Order("1.00"), fixtures.VisaCard(), nil, nil)

	assert.Same(t, netErr, err)
	assert.False(t, domain.IsGatewayError(err))
	assert.True(t, domain.IsRetriable(err))
	transport.AssertNumberOfCalls(t, "Send", 1)
}

func TestGateway_ProtocolError(t *testing.T) {
	gw, transport := newTestGateway(t)

	transport.On("Send", mock.Anything, mock.Anything, mock.Anything).Return([]byte("<html>Bad Gateway</html>"), nil).Once()

	_, err := gw.SubmitTransaction(context.Background(), fixtures.Order("1.00"), fixtures.VisaCard(), nil, nil)

	require.True(t, domain.IsProtocolError(err))
	gwErr, _ := domain.AsGatewayError(err)
	assert.Equal(t, "<html>Bad Gateway</html>", string(gwErr.Raw))
}

func TestGateway_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewGatewayMetrics(reg)
	gw, transport := newTestGateway(t, WithMetrics(metrics))

	transport.On("Send", mock.Anything, mock.Anything, payloadWith(map[string]string{"ssl_amount": "1.00"})).
		Return([]byte(approvedSale), nil)
	transport.On("Send", mock.Anything, mock.Anything, payloadWith(map[string]string{"ssl_amount": "2.05"})).
		Return([]byte(`<txn><ssl_result>1</ssl_result><ssl_result_message>DECLINED</ssl_result_message></txn>`), nil)

	ctx := context.Background()
	_, _ = gw.SubmitTransaction(ctx, fixtures.Order("1.00"), fixtures.VisaCard(), nil, nil)
	_, _ = gw.SubmitTransaction(ctx, fixtures.Order("2.05"), fixtures.VisaCard(), nil, nil)
	_, _ = gw.SubmitTransaction(ctx, fixtures.Order("3.00"), fixtures.RestrictedCard(), nil, nil)

	expected := `
# HELP virtualmerchant_transactions_total Total number of VirtualMerchant gateway transactions
# TYPE virtualmerchant_transactions_total counter
virtualmerchant_transactions_total{outcome="approved",transaction_type="ccsale"} 1
virtualmerchant_transactions_total{outcome="declined",transaction_type="ccsale"} 1
virtualmerchant_transactions_total{outcome="rejected",transaction_type="ccsale"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "virtualmerchant_transactions_total"))
}

func TestOutcomeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"approved", nil, observability.OutcomeApproved},
		{"declined", domain.NewGatewayReportedError("", "DECLINED", nil), observability.OutcomeDeclined},
		{"gateway invalid request", domain.NewGatewayReportedError("5000", "bad card", nil), observability.OutcomeInvalid},
		{"validation", pkgerrors.NewValidationError("transactionId", "is required"), observability.OutcomeInvalid},
		{"restricted", domain.NewLocalPolicyError(domain.RestrictedCardMessage), observability.OutcomeRejected},
		{"protocol", domain.NewProtocolError(nil, nil), observability.OutcomeProtocol},
		{"transport", errors.New("reset by peer"), observability.OutcomeTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outcomeFor(tt.err))
		})
	}
}
