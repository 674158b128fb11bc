package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReference(t *testing.T) {
	ref := NewReference("dep")

	assert.True(t, strings.HasPrefix(ref, "DEP-"))

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		r := NewReference("DEP")
		require.False(t, seen[r], "generated a colliding reference: %s", r)
		seen[r] = true
	}
}

func TestParsePurpose(t *testing.T) {
	purpose, err := ParsePurpose(" Deposit ")
	require.NoError(t, err)
	assert.Equal(t, PurposeDeposit, purpose)

	purpose, err = ParsePurpose("service")
	require.NoError(t, err)
	assert.Equal(t, PurposeService, purpose)

	_, err = ParsePurpose("gift")
	assert.Error(t, err)
}

func TestPurposeTransactionType(t *testing.T) {
	assert.Equal(t, TypeDeposit, PurposeDeposit.TransactionType())
	assert.Equal(t, TypeServicePayment, PurposeService.TransactionType())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
