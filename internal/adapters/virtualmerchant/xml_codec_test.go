package virtualmerchant

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/virtualmerchant/internal/adapters/ports"
)

func TestEncodePayload(t *testing.T) {
	out, err := EncodePayload(ports.Payload{
		"ssl_amount":           "42.00",
		"ssl_transaction_type": "ccsale",
		"ssl_description":      "Tom and Jerry",
	})
	require.NoError(t, err)

	assert.Equal(t,
		`<txn><ssl_transaction_type>ccsale</ssl_transaction_type>`+
			`<ssl_amount>42.00</ssl_amount>`+
			`<ssl_description>Tom and Jerry</ssl_description></txn>`,
		string(out))
}

func TestEncodePayload_RoundTripsThroughReadFields(t *testing.T) {
	payload := ports.Payload{
		"ssl_transaction_type": "ccsale",
		"ssl_first_name":       "Zoë",
		"ssl_description":      "Tom & Jerry <cartoon>",
	}

	out, err := EncodePayload(payload)
	require.NoError(t, err)

	doc, err := parseDocument(out)
	require.NoError(t, err)
	assert.Equal(t, "txn", doc.Root().Tag)
	assert.Equal(t, map[string]string(payload), readFields(doc.Root()))
	assert.NotContains(t, string(out), "<cartoon>")
}

func TestReadFields_FirstValueWins(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<txn>
		<errorMessage> first </errorMessage>
		<errorMessage>second</errorMessage>
		<ssl_result>1</ssl_result>
	</txn>`))

	fields := readFields(doc.Root())

	assert.Equal(t, "first", fields["errorMessage"])
	assert.Equal(t, "1", fields["ssl_result"])
	assert.Len(t, fields, 2)
}

func TestEncodePayload_RejectsInvalidFieldName(t *testing.T) {
	out, err := EncodePayload(ports.Payload{
		"ssl_transaction_type": "ccsale",
		"a></a><ssl_pin>0000</ssl_pin><b": "x",
	})

	assert.Nil(t, out)
	assert.ErrorContains(t, err, "invalid field name")
}
