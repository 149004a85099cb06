package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMembershipPolicyBand(t *testing.T) {
	policy := DefaultMembershipPolicy()

	assert.True(t, policy.AmountInBand(2500))
	assert.True(t, policy.AmountInBand(2700))
	assert.True(t, policy.AmountInBand(3100))
	assert.False(t, policy.AmountInBand(2499))
	assert.False(t, policy.AmountInBand(3101))
}

func TestMembershipPolicyCurrencies(t *testing.T) {
	policy := DefaultMembershipPolicy()

	assert.True(t, policy.AcceptsCurrency("GBP"))
	assert.True(t, policy.AcceptsCurrency("gbp"))
	assert.True(t, policy.AcceptsCurrency("USD"))
	assert.False(t, policy.AcceptsCurrency("EUR"))
	assert.False(t, policy.AcceptsCurrency(""))
}

func TestMembershipPolicyLookback(t *testing.T) {
	policy := DefaultMembershipPolicy()
	assert.Equal(t, 30*24*time.Hour, policy.Lookback())
}

func TestValidateMembershipPolicy(t *testing.T) {
	assert.NoError(t, validateMembershipPolicy(DefaultMembershipPolicy()))

	bad := DefaultMembershipPolicy()
	bad.MinAmount = 0
	assert.Error(t, validateMembershipPolicy(bad))

	bad = DefaultMembershipPolicy()
	bad.MaxAmount = bad.MinAmount - 1
	assert.Error(t, validateMembershipPolicy(bad))

	bad = DefaultMembershipPolicy()
	bad.Currencies = nil
	assert.Error(t, validateMembershipPolicy(bad))

	bad = DefaultMembershipPolicy()
	bad.LookbackDays = 0
	assert.Error(t, validateMembershipPolicy(bad))
}

func TestStaticMembershipPolicyHolder(t *testing.T) {
	policy := DefaultMembershipPolicy()
	policy.MinAmount = 2900

	holder := StaticMembershipPolicyHolder(policy)
	assert.Equal(t, int64(2900), holder.Get().MinAmount)
}
