package virtualmerchant

import (
	"errors"
	"fmt"

	"github.com/kevin07696/virtualmerchant/internal/domain"
)

// ResponseShape selects which fields a successful response is expected to carry
type ResponseShape int

const (
	ShapeCharge  ResponseShape = iota // ssl_txn_id + ssl_approval_code
	ShapeToken                        // ssl_token
	ShapeConfirm                      // original fields only
	ShapeSettle                       // ssl_txn_id
	ShapeBatch                        // txnlist of txn nodes
)

func (s ResponseShape) String() string {
	switch s {
	case ShapeCharge:
		return "charge"
	case ShapeToken:
		return "token"
	case ShapeConfirm:
		return "confirm"
	case ShapeSettle:
		return "settle"
	case ShapeBatch:
		return "batch"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Response field names read by the decoder
const (
	fieldResult        = "ssl_result"
	fieldResultMessage = "ssl_result_message"
	fieldApprovalCode  = "ssl_approval_code"
	fieldTxnCount      = "ssl_txn_count"
	fieldErrorCode     = "errorCode"
	fieldErrorMessage  = "errorMessage"
	fieldErrorName     = "errorName"
)

var (
	errUnexpectedRoot = errors.New("response root is neither txn nor txnlist")
	errMissingRoot    = errors.New("response has no root element")
	errNotBatch       = errors.New("expected txnlist, got txn")
	errNotSingle      = errors.New("expected txn, got txnlist")
)

// DecodedResponse is a successful decode. Exactly one of Result or Batch is set,
// as selected by Shape.
type DecodedResponse struct {
	Shape  ResponseShape
	Result *domain.TransactionResult
	Batch  []domain.BatchTransaction
}

// DecodeResponse classifies a raw gateway body.
// It returns a *domain.GatewayError of kind protocol when no transaction node can
// be read, and of kind gateway when the node carries an error indicator.
func DecodeResponse(raw []byte, shape ResponseShape) (*DecodedResponse, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, domain.NewProtocolError(raw, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, domain.NewProtocolError(raw, errMissingRoot)
	}

	switch root.Tag {
	case rootTxn:
		fields := domain.Fields(readFields(root))
		if gwErr := gatewayErrorFrom(fields); gwErr != nil {
			return nil, gwErr
		}
		if shape == ShapeBatch {
			return nil, domain.NewProtocolError(raw, errNotBatch)
		}
		return &DecodedResponse{Shape: shape, Result: extractResult(fields, shape)}, nil

	case rootTxnList:
		listFields := domain.Fields(readFields(root))
		delete(listFields, rootTxn)
		if gwErr := gatewayErrorFrom(listFields); gwErr != nil {
			return nil, gwErr
		}
		if shape != ShapeBatch {
			return nil, domain.NewProtocolError(raw, errNotSingle)
		}

		nodes := root.SelectElements(rootTxn)
		batch := make([]domain.BatchTransaction, 0, len(nodes))
		if listFields.Get(fieldTxnCount) == "0" {
			return &DecodedResponse{Shape: shape, Batch: batch}, nil
		}
		for _, node := range nodes {
			batch = append(batch, domain.BatchTransaction{Original: domain.Fields(readFields(node))})
		}
		return &DecodedResponse{Shape: shape, Batch: batch}, nil

	default:
		return nil, domain.NewProtocolError(raw, fmt.Errorf("%w: %s", errUnexpectedRoot, root.Tag))
	}
}

// hasErrorIndicator reports an errorCode/errorMessage, or an ssl_result other than "0"
func hasErrorIndicator(fields domain.Fields) bool {
	if fields.Has(fieldErrorCode) || fields.Has(fieldErrorMessage) {
		return true
	}
	return fields.Has(fieldResult) && fields.Get(fieldResult) != "0"
}

func gatewayErrorFrom(fields domain.Fields) *domain.GatewayError {
	if !hasErrorIndicator(fields) {
		return nil
	}
	message := fields.Get(fieldErrorMessage)
	if message == "" {
		message = fields.Get(fieldResultMessage)
	}
	if message == "" {
		message = fields.Get(fieldErrorName)
	}
	return domain.NewGatewayReportedError(fields.Get(fieldErrorCode), message, fields)
}

func extractResult(fields domain.Fields, shape ResponseShape) *domain.TransactionResult {
	result := &domain.TransactionResult{Original: fields}
	switch shape {
	case ShapeCharge:
		result.TransactionID = fields.Get(fieldTransactionID)
		result.AuthCode = fields.Get(fieldApprovalCode)
	case ShapeToken:
		result.ProfileID = fields.Get(fieldToken)
	case ShapeSettle:
		result.TransactionID = fields.Get(fieldTransactionID)
	}
	return result
}
