package ports

import (
	"context"
	"sort"
)

// TransactionTypeField is the payload field naming the gateway transaction type
const TransactionTypeField = "ssl_transaction_type"

// Payload is the flat gateway request (gateway field name -> value)
type Payload map[string]string

// Clone returns an independent copy of the payload
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// OrderedKeys returns the field names in wire order: the transaction type
// first, then the rest lexically. Order carries no meaning for the gateway.
func (p Payload) OrderedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if k != TransactionTypeField {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := p[TransactionTypeField]; ok {
		keys = append([]string{TransactionTypeField}, keys...)
	}
	return keys
}

// Transport delivers a signed payload to the gateway and returns the raw response body.
// Implementations serialize the payload to the gateway's XML envelope.
// Network failures (DNS, timeout, refused connection) are returned unchanged.
type Transport interface {
	Send(ctx context.Context, endpoint string, payload Payload) ([]byte, error)
}
