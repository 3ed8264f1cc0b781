package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields is a flat txn node as returned by the gateway (field name -> value)
type Fields map[string]string

// Get returns the value of a field, empty when absent
func (f Fields) Get(name string) string {
	if f == nil {
		return ""
	}
	return f[name]
}

// Has reports whether a field is present, even if empty
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Keys returns the field names in lexical order
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Order carries the amount and order identification of a charge
type Order struct {
	Amount        decimal.Decimal
	InvoiceNumber string
	Description   string
	CustomerID    string
}

// Attributes returns the non-empty order attributes keyed by domain name
func (o *Order) Attributes() map[string]string {
	if o == nil {
		return nil
	}
	attrs := make(map[string]string, 4)
	if !o.Amount.IsZero() {
		attrs["amount"] = o.Amount.StringFixed(2)
	}
	putIfSet(attrs, "invoiceNumber", o.InvoiceNumber)
	putIfSet(attrs, "description", o.Description)
	putIfSet(attrs, "customerId", o.CustomerID)
	return attrs
}

// CreditCard holds raw card data. Month is "MM", year is "YY" or "YYYY".
type CreditCard struct {
	CreditCardNumber string
	ExpirationMonth  string
	ExpirationYear   string
	CVV2             string
}

// Number returns the card number with all whitespace removed
func (c *CreditCard) Number() string {
	if c == nil {
		return ""
	}
	return strings.Join(strings.Fields(c.CreditCardNumber), "")
}

// Attributes returns the non-empty card attributes keyed by domain name
func (c *CreditCard) Attributes() map[string]string {
	if c == nil {
		return nil
	}
	attrs := make(map[string]string, 4)
	putIfSet(attrs, "creditCardNumber", c.Number())
	putIfSet(attrs, "expirationMonth", c.ExpirationMonth)
	putIfSet(attrs, "expirationYear", c.ExpirationYear)
	putIfSet(attrs, "cvv2", c.CVV2)
	return attrs
}

// Prospect holds customer, billing and shipping contact data.
// ProfileID is a token obtained from CreateCustomerProfile.
type Prospect struct {
	ProfileID string

	CustomerFirstName string
	CustomerLastName  string
	CustomerEmail     string
	CustomerPhone     string

	BillingFirstName    string
	BillingLastName     string
	BillingCompany      string
	BillingAddress1     string
	BillingAddress2     string
	BillingCity         string
	BillingState        string
	BillingPostalCode   string
	BillingCountry      string
	BillingPhone        string
	BillingEmailAddress string

	ShippingFirstName  string
	ShippingLastName   string
	ShippingCompany    string
	ShippingAddress1   string
	ShippingAddress2   string
	ShippingCity       string
	ShippingState      string
	ShippingPostalCode string
	ShippingCountry    string
	ShippingPhone      string
}

// Attributes returns every non-empty contact attribute keyed by domain name
func (p *Prospect) Attributes() map[string]string {
	if p == nil {
		return nil
	}
	attrs := p.BillingAttributes()
	for k, v := range p.ShippingAttributes() {
		attrs[k] = v
	}
	return attrs
}

// BillingAttributes returns the customer and billing attributes
func (p *Prospect) BillingAttributes() map[string]string {
	if p == nil {
		return nil
	}
	attrs := make(map[string]string, 16)
	putIfSet(attrs, "customerFirstName", p.CustomerFirstName)
	putIfSet(attrs, "customerLastName", p.CustomerLastName)
	putIfSet(attrs, "customerEmail", p.CustomerEmail)
	putIfSet(attrs, "customerPhone", p.CustomerPhone)
	putIfSet(attrs, "billingFirstName", p.BillingFirstName)
	putIfSet(attrs, "billingLastName", p.BillingLastName)
	putIfSet(attrs, "billingCompany", p.BillingCompany)
	putIfSet(attrs, "billingAddress1", p.BillingAddress1)
	putIfSet(attrs, "billingAddress2", p.BillingAddress2)
	putIfSet(attrs, "billingCity", p.BillingCity)
	putIfSet(attrs, "billingState", p.BillingState)
	putIfSet(attrs, "billingPostalCode", p.BillingPostalCode)
	putIfSet(attrs, "billingCountry", p.BillingCountry)
	putIfSet(attrs, "billingPhone", p.BillingPhone)
	putIfSet(attrs, "billingEmailAddress", p.BillingEmailAddress)
	return attrs
}

// ShippingAttributes returns the shipping attributes
func (p *Prospect) ShippingAttributes() map[string]string {
	if p == nil {
		return nil
	}
	attrs := make(map[string]string, 10)
	putIfSet(attrs, "shippingFirstName", p.ShippingFirstName)
	putIfSet(attrs, "shippingLastName", p.ShippingLastName)
	putIfSet(attrs, "shippingCompany", p.ShippingCompany)
	putIfSet(attrs, "shippingAddress1", p.ShippingAddress1)
	putIfSet(attrs, "shippingAddress2", p.ShippingAddress2)
	putIfSet(attrs, "shippingCity", p.ShippingCity)
	putIfSet(attrs, "shippingState", p.ShippingState)
	putIfSet(attrs, "shippingPostalCode", p.ShippingPostalCode)
	putIfSet(attrs, "shippingCountry", p.ShippingCountry)
	putIfSet(attrs, "shippingPhone", p.ShippingPhone)
	return attrs
}

// PaymentFields are caller-supplied extras applied after every other source.
// Extra is keyed by gateway field name and passed through verbatim.
type PaymentFields struct {
	Amount        decimal.Decimal
	Description   string
	InvoiceNumber string
	PONumber      string
	CustomerID    string
	CustomerEmail string
	CustomerPhone string
	Extra         map[string]string
}

// Attributes returns the non-empty payment field attributes keyed by domain name
func (f *PaymentFields) Attributes() map[string]string {
	if f == nil {
		return nil
	}
	attrs := make(map[string]string, 7)
	if !f.Amount.IsZero() {
		attrs["amount"] = f.Amount.StringFixed(2)
	}
	putIfSet(attrs, "description", f.Description)
	putIfSet(attrs, "invoiceNumber", f.InvoiceNumber)
	putIfSet(attrs, "poNumber", f.PONumber)
	putIfSet(attrs, "customerId", f.CustomerID)
	putIfSet(attrs, "customerEmail", f.CustomerEmail)
	putIfSet(attrs, "customerPhone", f.CustomerPhone)
	return attrs
}

// TransactionResult is the normalized outcome of a successful gateway call
type TransactionResult struct {
	TransactionID string
	AuthCode      string
	ProfileID     string
	Original      Fields
}

// BatchTransaction is one transaction from a settled batch listing
type BatchTransaction struct {
	Original Fields
}

// TransactionID returns ssl_txn_id
func (t BatchTransaction) TransactionID() string {
	return t.Original.Get("ssl_txn_id")
}

// Status returns ssl_trans_status (e.g. "STL" once settled)
func (t BatchTransaction) Status() string {
	return t.Original.Get("ssl_trans_status")
}

// Settled reports whether the transaction has been settled
func (t BatchTransaction) Settled() bool {
	return t.Status() == "STL"
}

func putIfSet(attrs map[string]string, key, value string) {
	if value != "" {
		attrs[key] = value
	}
}
