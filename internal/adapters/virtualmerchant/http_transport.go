package virtualmerchant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
	pkghttp "github.com/kevin07696/virtualmerchant/pkg/http"
)

// xmlDataField is the single form field carrying the serialized <txn> document
const xmlDataField = "xmldata"

// DefaultMaxResponseBytes bounds a response body unless Config overrides it.
// A 31-day txnquery for a busy merchant runs to several megabytes.
const DefaultMaxResponseBytes = 32 << 20

// ErrResponseTooLarge is returned when a response body exceeds the configured limit
var ErrResponseTooLarge = errors.New("gateway response exceeds size limit")

// StatusError is returned for a non-2xx HTTP response
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned HTTP %d", e.StatusCode)
}

// HTTPTransport posts signed payloads to the gateway as an xmldata form field
type HTTPTransport struct {
	client   ports.HTTPClient
	breaker  *CircuitBreaker
	logger   *zap.Logger
	maxBytes int64
}

// NewHTTPTransport creates the production transport.
// A nil client gets the tuned gateway client from pkg/http.
func NewHTTPTransport(cfg *Config, client ports.HTTPClient, logger *zap.Logger) *HTTPTransport {
	if client == nil {
		client = pkghttp.NewHTTPClient(pkghttp.GatewayClientConfig(), cfg.Timeout)
	}

	breaker := NewCircuitBreaker(cfg.Breaker)
	breaker.OnStateChange(func(from, to BreakerState) {
		logger.Warn("Gateway circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})

	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	return &HTTPTransport{
		client:   client,
		breaker:  breaker,
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// Send implements ports.Transport.
// Network and HTTP status failures are returned unchanged and never retried.
// An oversized body fails with ErrResponseTooLarge instead of being truncated.
func (t *HTTPTransport) Send(ctx context.Context, endpoint string, payload ports.Payload) ([]byte, error) {
	doc, err := EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set(xmlDataField, string(doc))

	var body []byte
	var tooLarge bool
	err = t.breaker.ExecuteContext(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/xml")

		start := time.Now()
		resp, err := t.client.Do(req)
		if err != nil {
			t.logger.Error("Failed to send gateway request",
				zap.String("transaction_type", payload[ports.TransactionTypeField]),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBytes+1))
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if int64(len(raw)) > t.maxBytes {
			// not a gateway failure
			tooLarge = true
			return nil
		}

		t.logger.Debug("Received gateway response",
			zap.String("transaction_type", payload[ports.TransactionTypeField]),
			zap.Int("status", resp.StatusCode),
			zap.Int("bytes", len(raw)),
			zap.Duration("elapsed", time.Since(start)),
		)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &StatusError{StatusCode: resp.StatusCode, Body: raw}
		}
		body = raw
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrProbeInFlight) {
			t.logger.Warn("Circuit breaker is open, rejecting gateway request",
				zap.String("circuit_state", t.breaker.State().String()),
			)
		}
		return nil, err
	}
	if tooLarge {
		t.logger.Error("Gateway response exceeds size limit",
			zap.String("transaction_type", payload[ports.TransactionTypeField]),
			zap.Int64("max_bytes", t.maxBytes),
		)
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, t.maxBytes)
	}

	return body, nil
}

// BreakerState exposes the circuit state for health reporting
func (t *HTTPTransport) BreakerState() BreakerState {
	return t.breaker.State()
}

var _ ports.Transport = (*HTTPTransport)(nil)
