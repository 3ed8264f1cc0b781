package fixtures

import (
	"github.com/shopspring/decimal"

	"github.com/kevin07696/virtualmerchant/internal/domain"
)

// Demo account credentials accepted by the sandbox and the stub gateway
const (
	DemoMerchantID = "000078"
	DemoUserID     = "webpage"
	DemoPin        = "ZKN0S1"
)

// Card numbers used across tests
const (
	VisaNumber       = "4111111111111111"
	MastercardNumber = "5555555555554444"
	InvalidNumber    = "1234"
)

// DemoCredentials returns the sandbox demo credentials
func DemoCredentials() domain.Credentials {
	return domain.Credentials{
		MerchantID: DemoMerchantID,
		UserID:     DemoUserID,
		Pin:        DemoPin,
		Sandbox:    true,
	}
}

// VisaCard returns a valid test card expiring 12/2017 with a CVV
func VisaCard() *domain.CreditCard {
	return &domain.CreditCard{
		CreditCardNumber: VisaNumber,
		ExpirationMonth:  "12",
		ExpirationYear:   "2017",
		CVV2:             "123",
	}
}

// MastercardCard returns a valid Mastercard test card with a two digit year
func MastercardCard() *domain.CreditCard {
	return &domain.CreditCard{
		CreditCardNumber: MastercardNumber,
		ExpirationMonth:  "12",
		ExpirationYear:   "17",
		CVV2:             "321",
	}
}

// RestrictedCard returns the gateway's negative testing card
func RestrictedCard() *domain.CreditCard {
	return &domain.CreditCard{
		CreditCardNumber: domain.RestrictedTestCardNumber,
		ExpirationMonth:  "12",
		ExpirationYear:   "2017",
		CVV2:             "123",
	}
}

// Order returns an order for the given amount ("42.00")
func Order(amount string) *domain.Order {
	return &domain.Order{
		Amount:        decimal.RequireFromString(amount),
		InvoiceNumber: "INV-1001",
	}
}

// Prospect returns a customer with billing and shipping contacts
func Prospect() *domain.Prospect {
	return &domain.Prospect{
		BillingFirstName:    "Ada",
		BillingLastName:     "Lovelace",
		BillingEmailAddress: "ada@example.com",
		BillingPhone:        "555-0100",
		BillingAddress1:     "1 Analytical Way",
		BillingAddress2:     "Suite 2",
		BillingCity:         "London",
		BillingState:        "LN",
		BillingPostalCode:   "3212",
		BillingCountry:      "GB",

		ShippingFirstName:  "Charles",
		ShippingLastName:   "Babbage",
		ShippingAddress1:   "2 Difference St",
		ShippingCity:       "London",
		ShippingState:      "LN",
		ShippingPostalCode: "3212",
		ShippingCountry:    "GB",
	}
}

// PaymentFields returns caller extras with a description
func PaymentFields() *domain.PaymentFields {
	return &domain.PaymentFields{
		Description: "virtualmerchant client test",
	}
}
