package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKeyRoundTrip(t *testing.T) {
	key := StorageKey(Measurement, "12")
	assert.Equal(t, "measurement_12.json", key)

	identity, err := IdentityFromKey(Measurement, key)
	require.NoError(t, err)
	assert.Equal(t, "12", identity)

	assert.Equal(t, "bill_INV-7.json", StorageKey(Bill, "INV-7"))
}

func TestValidateKeyRejectsForeignAndTraversalKeys(t *testing.T) {
	cases := []string{
		"",
		"bill_1.json",
		"measurement_1.txt",
		"../measurement_1.json",
		"measurement_..json",
		"measurement_a/b.json",
		" measurement_1.json",
	}
	for _, key := range cases {
		assert.ErrorIs(t, ValidateKey(Measurement, key), ErrInvalidKey, "key %q", key)
	}
	assert.NoError(t, ValidateKey(Measurement, "measurement_1.json"))
}

func TestIdentityFromKeyRejectsEmptyIdentity(t *testing.T) {
	_, err := IdentityFromKey(Bill, "bill_.json")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestSerialFromKey(t *testing.T) {
	assert.Equal(t, uint64(3), SerialFromKey("measurement_3.json"))
	assert.Equal(t, uint64(42), SerialFromKey("measurement_42_copy7.json"))
	assert.Equal(t, uint64(0), SerialFromKey("measurement_x.json"))
	assert.Equal(t, uint64(0), SerialFromKey("measurement_"+strings.Repeat("9", 30)+".json"))
}

func TestValidateIdentity(t *testing.T) {
	assert.NoError(t, ValidateIdentity(Bill, "1001"))
	assert.NoError(t, ValidateIdentity(Bill, "INV-7.1"))
	for _, identity := range []string{"", " 7", "a/b", `a\b`, "..", "7.", "7.."} {
		assert.ErrorIs(t, ValidateIdentity(Bill, identity), ErrInvalidIdentity, "identity %q", identity)
	}
}

func TestDocumentPreservesNumbers(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"chaati": 38.50, "name": " Ali ", "hip": true}`))
	require.NoError(t, err)

	raw, err := doc.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"chaati": 38.50`)

	name, ok := doc.String("name")
	assert.True(t, ok)
	assert.Equal(t, "Ali", name)

	hip, _ := doc.String("hip")
	assert.Equal(t, "true", hip)
}

func TestParseDocumentRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `null`, `"x"`, `{"a":1} {"b":2}`, `{`} {
		_, err := ParseDocument([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedDocument, "input %s", raw)
	}
}
