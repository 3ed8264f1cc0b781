package domain

import (
	"errors"
)

// Credentials authenticate every request sent to the gateway.
// Values are copied into the client at construction and never mutated.
type Credentials struct {
	MerchantID string
	UserID     string
	Pin        string
	Sandbox    bool
}

// Validate fails fast when any credential is absent
func (c Credentials) Validate() error {
	if c.MerchantID == "" {
		return errors.New("MERCHANT_ID must be defined")
	}
	if c.UserID == "" {
		return errors.New("USER_ID must be defined")
	}
	if c.Pin == "" {
		return errors.New("SSL_PIN must be defined")
	}
	return nil
}
