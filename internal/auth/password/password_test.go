package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerify(t *testing.T) {
	encoded, err := Hash("sui-dhaga")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=1,p=4$"))

	assert.True(t, Verify("sui-dhaga", encoded))
	assert.False(t, Verify("sui-dhaga!", encoded))
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!$aGFzaA",
	} {
		assert.False(t, Verify("anything", encoded), encoded)
	}
}

func TestHashWithParamsRoundTrip(t *testing.T) {
	p := Params{Memory: 8 * 1024, Time: 2, Threads: 1, SaltLen: 8, KeyLen: 16}
	encoded, err := HashWithParams("kurta", p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=2,p=1$"))

	decoded, salt, key, err := decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
	assert.Len(t, salt, 8)
	assert.Len(t, key, 16)
	assert.True(t, Verify("kurta", encoded))
}

func TestDecodeReportsMalformed(t *testing.T) {
	_, _, _, err := decode("$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, ErrMalformedHash)
}
