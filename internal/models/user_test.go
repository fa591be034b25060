package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasPremium(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	assert.False(t, (&User{SubscriptionStatus: SubscriptionFree}).HasPremium())
	assert.False(t, (&User{SubscriptionStatus: SubscriptionPremium, SubscriptionExpiresAt: &past}).HasPremium())
	assert.True(t, (&User{SubscriptionStatus: SubscriptionPremium, SubscriptionExpiresAt: &future}).HasPremium())

	// No stored expiry means the entitlement stands until a terminal
	// notification arrives
	assert.True(t, (&User{SubscriptionStatus: SubscriptionPremium}).HasPremium())
}
