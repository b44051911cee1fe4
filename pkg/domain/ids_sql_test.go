package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedIDsRoundTripThroughDriver(t *testing.T) {
	u := uuid.New()
	v, err := ProductID(u).Value()
	require.NoError(t, err)

	var got ProductID
	require.NoError(t, got.Scan(v))
	assert.Equal(t, ProductID(u), got)
}

func TestNullUserID(t *testing.T) {
	var n NullUserID
	require.NoError(t, n.Scan(nil))
	assert.Nil(t, n.Ptr())

	u := uuid.New()
	require.NoError(t, n.Scan(u.String()))
	require.NotNil(t, n.Ptr())
	assert.Equal(t, UserID(u), *n.Ptr())
}
