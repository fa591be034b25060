package models

// AppStoreNotificationWrapper represents the outer wrapper of App Store Server Notification V2
// Apple sends notifications as a JWT in the signedPayload field
type AppStoreNotificationWrapper struct {
	SignedPayload string `json:"signedPayload"` // JWT containing the actual notification
}

// AppStoreNotification represents App Store Server Notification V2
// This is the decoded content from the signedPayload JWT
// Apple uses camelCase for field names
type AppStoreNotification struct {
	NotificationType      string                 `json:"notificationType"`  // e.g., "SUBSCRIBED", "DID_RENEW"
	Subtype               string                 `json:"subtype,omitempty"` // Optional qualifier, e.g. "UNREPORTED"
	NotificationUUID      string                 `json:"notificationUUID"`  // Unique notification ID
	Version               string                 `json:"version,omitempty"`
	SignedDate            int64                  `json:"signedDate"` // Timestamp when notification was signed
	Data                  *NotificationData      `json:"data,omitempty"`
	ExternalPurchaseToken *ExternalPurchaseToken `json:"externalPurchaseToken,omitempty"`
}

// NotificationData contains the notification data payload
type NotificationData struct {
	AppAppleID            int    `json:"appAppleId"`
	BundleID              string `json:"bundleId"`
	BundleVersion         string `json:"bundleVersion"`
	Environment           string `json:"environment"` // "Sandbox" or "Production"
	SignedTransactionInfo string `json:"signedTransactionInfo,omitempty"`
	SignedRenewalInfo     string `json:"signedRenewalInfo,omitempty"`
}

// ExternalPurchaseToken is sent with EXTERNAL_PURCHASE_TOKEN notifications
// (alternative payment flows in the EU)
type ExternalPurchaseToken struct {
	ExternalPurchaseID string `json:"externalPurchaseId"`
	TokenCreationDate  int64  `json:"tokenCreationDate"`
	AppAppleID         int    `json:"appAppleId"`
	BundleID           string `json:"bundleId"`
}

// TransactionInfo represents the decoded signedTransactionInfo payload.
// Timestamps are seconds since epoch.
type TransactionInfo struct {
	TransactionID         string `json:"transactionId"`
	OriginalTransactionID string `json:"originalTransactionId"`
	BundleID              string `json:"bundleId"`
	ProductID             string `json:"productId"`
	PurchaseDate          int64  `json:"purchaseDate"`
	OriginalPurchaseDate  int64  `json:"originalPurchaseDate"`
	ExpiresDate           int64  `json:"expiresDate,omitempty"`
	Type                  string `json:"type"`
	AppAccountToken       string `json:"appAccountToken,omitempty"`
	InAppOwnershipType    string `json:"inAppOwnershipType"`
	SignedDate            int64  `json:"signedDate"`
	Environment           string `json:"environment"`
	TransactionReason     string `json:"transactionReason,omitempty"`
}

// RenewalInfo represents the decoded signedRenewalInfo payload
type RenewalInfo struct {
	OriginalTransactionID string `json:"originalTransactionId"`
	AutoRenewProductID    string `json:"autoRenewProductId"`
	ProductID             string `json:"productId"`
	AutoRenewStatus       int    `json:"autoRenewStatus"` // 1 = will renew, 0 = will not
	Environment           string `json:"environment"`
	RenewalDate           int64  `json:"renewalDate,omitempty"`
	SignedDate            int64  `json:"signedDate"`
	GracePeriodExpiresDate int64 `json:"gracePeriodExpiresDate,omitempty"`
}
