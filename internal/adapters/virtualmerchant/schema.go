package virtualmerchant

// SchemaVersion identifies the field schema tables below.
// Any change to a table is a wire compatibility change and must bump it.
const SchemaVersion = "1"

// Schema maps domain attribute names to gateway field names
type Schema map[string]string

// transactionSchema covers the fields every charge needs
var transactionSchema = Schema{
	"amount":           "ssl_amount",
	"creditCardNumber": "ssl_card_number",
}

// refundSchema is deliberately narrow: a return only accepts an amount and contact phone
var refundSchema = Schema{
	"amount":        "ssl_amount",
	"customerPhone": "ssl_phone",
}

// voidSchema is empty; a void only carries the transaction id
var voidSchema = Schema{}

// paymentFieldsSchema covers order, contact, billing and shipping fields.
// It never maps amount or the transaction type.
var paymentFieldsSchema = Schema{
	"cvv2":          "ssl_cvv2cvc2",
	"description":   "ssl_description",
	"invoiceNumber": "ssl_invoice_number",
	"poNumber":      "ssl_customer_code",
	"customerId":    "ssl_customer_number",

	"customerFirstName": "ssl_first_name",
	"customerLastName":  "ssl_last_name",
	"customerEmail":     "ssl_email",
	"customerPhone":     "ssl_phone",

	"billingFirstName":    "ssl_first_name",
	"billingLastName":     "ssl_last_name",
	"billingCompany":      "ssl_company",
	"billingAddress1":     "ssl_avs_address",
	"billingAddress2":     "ssl_address2",
	"billingCity":         "ssl_city",
	"billingState":        "ssl_state",
	"billingPostalCode":   "ssl_avs_zip",
	"billingCountry":      "ssl_country",
	"billingPhone":        "ssl_phone",
	"billingEmailAddress": "ssl_email",

	"shippingFirstName":  "ssl_ship_to_first_name",
	"shippingLastName":   "ssl_ship_to_last_name",
	"shippingCompany":    "ssl_ship_to_company",
	"shippingAddress1":   "ssl_ship_to_address1",
	"shippingAddress2":   "ssl_ship_to_address2",
	"shippingCity":       "ssl_ship_to_city",
	"shippingState":      "ssl_ship_to_state",
	"shippingPostalCode": "ssl_ship_to_zip",
	"shippingCountry":    "ssl_ship_to_country",
	"shippingPhone":      "ssl_ship_to_phone",
}

// TransactionSchema returns a copy of the generic transaction table
func TransactionSchema() Schema { return transactionSchema.clone() }

// RefundSchema returns a copy of the refund table
func RefundSchema() Schema { return refundSchema.clone() }

// PaymentFieldsSchema returns a copy of the payment/contact/shipping table
func PaymentFieldsSchema() Schema { return paymentFieldsSchema.clone() }

// Lookup returns the gateway field name for a domain attribute
func (s Schema) Lookup(attribute string) (string, bool) {
	field, ok := s[attribute]
	return field, ok
}

func (s Schema) clone() Schema {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
