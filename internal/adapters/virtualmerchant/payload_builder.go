package virtualmerchant

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
	"github.com/kevin07696/virtualmerchant/internal/domain"
	pkgerrors "github.com/kevin07696/virtualmerchant/pkg/errors"
	"github.com/kevin07696/virtualmerchant/pkg/timeutil"
)

// TransactionType is the gateway ssl_transaction_type code
type TransactionType string

const (
	TransactionTypeSale     TransactionType = "ccsale"     // Authorization and capture
	TransactionTypeAuthOnly TransactionType = "ccauthonly" // Authorization only
	TransactionTypeRefund   TransactionType = "ccreturn"   // Return against a settled transaction
	TransactionTypeVoid     TransactionType = "ccvoid"     // Void an unsettled transaction
	TransactionTypeSettle   TransactionType = "settle"     // Settle an authorization
	TransactionTypeGetToken TransactionType = "ccgettoken" // Tokenize a card
	TransactionTypeQuery    TransactionType = "txnquery"   // Batch/date-range query
)

// Gateway field names set outside the schema tables
const (
	fieldCardNumber      = "ssl_card_number"
	fieldTransactionID   = "ssl_txn_id"
	fieldToken           = "ssl_token"
	fieldAddToken        = "ssl_add_token"
	fieldExpDate         = "ssl_exp_date"
	fieldCVVIndicator    = "ssl_cvv2cvc2_indicator"
	fieldCVV             = "ssl_cvv2cvc2"
	fieldSearchStartDate = "ssl_search_start_date"
	fieldSearchEndDate   = "ssl_search_end_date"
	fieldMerchantID      = "ssl_merchant_id"
	fieldUserID          = "ssl_user_id"
	fieldPin             = "ssl_pin"
)

// protectedFields may never be supplied through PaymentFields.Extra
var protectedFields = map[string]bool{
	ports.TransactionTypeField: true,
	fieldMerchantID:            true,
	fieldUserID:                true,
	fieldPin:                   true,
}

// fieldNamePattern matches a gateway field name, which is written as an XML tag
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidFieldName reports whether name can be sent as a gateway field
func ValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// BuildRequest gathers every source a payload may be assembled from.
// Which sources are read depends on the transaction type.
type BuildRequest struct {
	Order      *domain.Order
	CreditCard *domain.CreditCard
	Prospect   *domain.Prospect // customer and billing contact; shipping too except when tokenizing
	Shipping   *domain.Prospect // shipping contact when tokenizing
	Fields     *domain.PaymentFields

	TransactionID string    // refund, void, settle
	Token         string    // stored-token charge
	SearchStart   time.Time // query
	SearchEnd     time.Time // query
}

// mergeStep applies one schema table to one source
type mergeStep struct {
	source string
	attrs  func(*BuildRequest) map[string]string
	schema Schema
}

func orderAttrs(r *BuildRequest) map[string]string    { return r.Order.Attributes() }
func cardAttrs(r *BuildRequest) map[string]string     { return r.CreditCard.Attributes() }
func prospectAttrs(r *BuildRequest) map[string]string { return r.Prospect.Attributes() }
func billingAttrs(r *BuildRequest) map[string]string  { return r.Prospect.BillingAttributes() }
func shippingAttrs(r *BuildRequest) map[string]string { return r.Shipping.ShippingAttributes() }
func fieldsAttrs(r *BuildRequest) map[string]string   { return r.Fields.Attributes() }

// mergePlans lists, per transaction type, the schema applications in precedence
// order. A later step overwrites an earlier one on the same gateway field.
var mergePlans = map[TransactionType][]mergeStep{
	TransactionTypeSale:     chargePlan,
	TransactionTypeAuthOnly: chargePlan,
	TransactionTypeGetToken: {
		{"credit_card", cardAttrs, transactionSchema},
		{"credit_card", cardAttrs, paymentFieldsSchema},
		{"billing", billingAttrs, paymentFieldsSchema},
		{"shipping", shippingAttrs, paymentFieldsSchema},
		{"payment_fields", fieldsAttrs, paymentFieldsSchema},
	},
	TransactionTypeRefund: {
		{"payment_fields", fieldsAttrs, refundSchema},
	},
	TransactionTypeVoid: {
		{"payment_fields", fieldsAttrs, voidSchema},
	},
	TransactionTypeSettle: {
		{"payment_fields", fieldsAttrs, paymentFieldsSchema},
	},
	TransactionTypeQuery: {},
}

var chargePlan = []mergeStep{
	{"order", orderAttrs, transactionSchema},
	{"order", orderAttrs, paymentFieldsSchema},
	{"credit_card", cardAttrs, transactionSchema},
	{"credit_card", cardAttrs, paymentFieldsSchema},
	{"prospect", prospectAttrs, paymentFieldsSchema},
	{"payment_fields", fieldsAttrs, paymentFieldsSchema},
}

// BuildPayload assembles the unsigned payload for a transaction type.
//
// Precedence, lowest to highest:
//  1. ssl_transaction_type and type defaults (ssl_add_token)
//  2. schema merge steps from mergePlans, in order
//  3. PaymentFields.Extra passthrough
//  4. explicit arguments (transaction id, token, search dates)
//  5. derived card fields (ssl_exp_date; ssl_cvv2cvc2_indicator when not supplied)
//
// The restricted test card is rejected before anything is built.
func BuildPayload(txType TransactionType, req *BuildRequest) (ports.Payload, error) {
	plan, ok := mergePlans[txType]
	if !ok {
		return nil, fmt.Errorf("unsupported transaction type: %s", txType)
	}
	if req == nil {
		req = &BuildRequest{}
	}

	if isRestrictedCard(req.CreditCard.Number()) {
		return nil, domain.NewLocalPolicyError(domain.RestrictedCardMessage)
	}

	payload := ports.Payload{ports.TransactionTypeField: string(txType)}
	if txType == TransactionTypeGetToken {
		payload[fieldAddToken] = "Y"
	}

	for _, step := range plan {
		mapKeys(step.attrs(req), step.schema, payload)
	}

	if req.Fields != nil {
		for _, key := range sortedKeys(req.Fields.Extra) {
			if !ValidFieldName(key) {
				return nil, pkgerrors.NewValidationError(key, "is not a valid gateway field name")
			}
			if protectedFields[key] {
				return nil, pkgerrors.NewValidationError(key, "cannot be supplied as a payment field")
			}
			payload[key] = req.Fields.Extra[key]
		}
	}

	// Extra may carry a raw card number
	if isRestrictedCard(payload[fieldCardNumber]) {
		return nil, domain.NewLocalPolicyError(domain.RestrictedCardMessage)
	}

	switch txType {
	case TransactionTypeRefund, TransactionTypeVoid, TransactionTypeSettle:
		payload[fieldTransactionID] = req.TransactionID
	case TransactionTypeQuery:
		payload[fieldSearchStartDate] = timeutil.FormatSearchDate(req.SearchStart)
		payload[fieldSearchEndDate] = timeutil.FormatSearchDate(req.SearchEnd)
	}
	if req.Token != "" {
		payload[fieldToken] = req.Token
	}

	if req.CreditCard != nil {
		if expDate, ok := formatExpDate(req.CreditCard.ExpirationMonth, req.CreditCard.ExpirationYear); ok {
			payload[fieldExpDate] = expDate
		}
		if _, hasCVV := payload[fieldCVV]; hasCVV {
			if _, set := payload[fieldCVVIndicator]; !set {
				payload[fieldCVVIndicator] = "1"
			}
		}
	}

	return payload, nil
}

// mapKeys copies every attribute known to the schema into the payload.
// Attributes are visited in lexical order so collisions inside one table
// resolve the same way on every build.
func mapKeys(attrs map[string]string, schema Schema, payload ports.Payload) {
	for _, attr := range sortedKeys(attrs) {
		if field, ok := schema.Lookup(attr); ok {
			payload[field] = attrs[attr]
		}
	}
}

// formatExpDate returns MM + the last two digits of the year
func formatExpDate(month, year string) (string, bool) {
	if month == "" || year == "" {
		return "", false
	}
	if len(month) == 1 {
		month = "0" + month
	}
	if len(year) > 2 {
		year = year[len(year)-2:]
	}
	return month + year, true
}

func isRestrictedCard(number string) bool {
	return strings.Join(strings.Fields(number), "") == domain.RestrictedTestCardNumber
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
