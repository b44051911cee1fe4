package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	dErrors "storefront/pkg/domain-errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		pw    string
		valid bool
	}{
		{"short1", false},
		{"12345678", false},
		{"١٢٣٤٥٦٧٨", false},
		{"12345678a", true},
		{"correct horse", true},
	}
	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			err := Validate(tt.pw)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	ok, err := Verify("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify("wrong-pass", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Verify("anything", "not-a-bcrypt-hash")
	assert.Error(t, err)

	_, err = Hash("", bcrypt.MinCost)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.NoError(t, Validate(a))
}
