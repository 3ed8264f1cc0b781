package virtualmerchant

import (
	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
	"github.com/kevin07696/virtualmerchant/internal/domain"
)

// Signer attaches merchant credentials to a payload.
// It holds no mutable state and is safe for concurrent use.
type Signer struct {
	creds domain.Credentials
}

// NewSigner creates a signer for validated credentials
func NewSigner(creds domain.Credentials) (*Signer, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &Signer{creds: creds}, nil
}

// Sign returns a copy of the payload carrying ssl_merchant_id, ssl_user_id and ssl_pin.
// Credentials always win over anything already present under those names.
func (s *Signer) Sign(payload ports.Payload) ports.Payload {
	signed := payload.Clone()
	signed[fieldMerchantID] = s.creds.MerchantID
	signed[fieldUserID] = s.creds.UserID
	signed[fieldPin] = s.creds.Pin
	return signed
}

// MerchantID returns the merchant the signer signs for
func (s *Signer) MerchantID() string {
	return s.creds.MerchantID
}
