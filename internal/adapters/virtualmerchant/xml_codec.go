package virtualmerchant

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
)

const (
	rootTxn     = "txn"
	rootTxnList = "txnlist"
)

// EncodePayload serializes a payload to the gateway's flat <txn> document.
// Fields are written in ports.Payload.OrderedKeys order. Tags are not
// escaped, so a key that is not a valid field name is an error.
func EncodePayload(payload ports.Payload) ([]byte, error) {
	doc := etree.NewDocument()
	root := doc.CreateElement(rootTxn)
	for _, key := range payload.OrderedKeys() {
		if !ValidFieldName(key) {
			return nil, fmt.Errorf("failed to encode txn document: invalid field name %q", key)
		}
		root.CreateElement(key).SetText(payload[key])
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode txn document: %w", err)
	}
	return out, nil
}

// parseDocument reads a gateway response body
func parseDocument(raw []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	return doc, nil
}

// readFields flattens the direct children of a node into scalar fields.
// A repeated tag keeps its first value; surrounding whitespace is trimmed.
func readFields(node *etree.Element) map[string]string {
	fields := make(map[string]string, len(node.ChildElements()))
	for _, child := range node.ChildElements() {
		if _, seen := fields[child.Tag]; seen {
			continue
		}
		fields[child.Tag] = strings.TrimSpace(child.Text())
	}
	return fields
}
