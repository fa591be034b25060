package models

import (
	"time"
)

// Subscription status values persisted on the user record.
// The App Store vocabulary is finer grained than the product's entitlement
// model; see services.CollapseStatus for the mapping.
const (
	SubscriptionFree    = "free"
	SubscriptionPremium = "premium"
)

// User is the app user record. Accounts are created at registration by the
// mobile app backend flow; this service only mutates the subscription and
// device-token fields.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"` // UUID assigned at registration
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Email     string `json:"email" gorm:"size:255;index"`
	FirstName string `json:"first_name" gorm:"size:100"`
	LastName  string `json:"last_name" gorm:"size:100"`
	Role      string `json:"role" gorm:"size:20"` // parent or child

	// Push delivery fields
	DeviceToken string `json:"device_token" gorm:"size:200;index"`
	Platform    string `json:"platform" gorm:"size:20;default:'ios'"`

	// Subscription fields, written by the notification reconciler
	SubscriptionStatus    string     `json:"subscription_status" gorm:"size:20;default:'free';index"`
	SubscriptionProductID string     `json:"subscription_product_id" gorm:"size:100;index"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at"`

	// Raw receipt data captured by the app at purchase time. Free text; the
	// reconciler matches users by searching it for the original transaction
	// id. See DESIGN.md for why this heuristic is kept.
	SubscriptionReceiptData string `json:"subscription_receipt_data" gorm:"type:text"`
}

// HasPremium reports whether the user currently has premium entitlement.
func (u *User) HasPremium() bool {
	if u.SubscriptionStatus != SubscriptionPremium {
		return false
	}
	if u.SubscriptionExpiresAt == nil {
		return true
	}
	return u.SubscriptionExpiresAt.After(time.Now())
}
