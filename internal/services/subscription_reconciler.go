package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chores-backend/internal/database"
	"chores-backend/internal/models"
	"chores-backend/pkg/logging"

	"gorm.io/gorm"
)

// Internal subscription statuses classified from App Store notification types.
// These are finer grained than the persisted entitlement; see CollapseStatus.
const (
	StatusActive       = "active"
	StatusBillingRetry = "billing_retry"
	StatusCancelled    = "cancelled"
	StatusExpired      = "expired"
	StatusRefunded     = "refunded"
	StatusRevoked      = "revoked"
)

// SubscriptionUpdate carries the classified outcome of a notification into
// the user-record update.
type SubscriptionUpdate struct {
	OriginalTransactionID string
	ProductID             string
	ExpiresDate           int64 // seconds since epoch, 0 = never
	AutoRenewStatus       int
	Environment           string
	Status                string
}

// SubscriptionReconciler consumes decoded App Store Server Notifications and
// updates the matching user's subscription status
type SubscriptionReconciler struct {
	db *gorm.DB
}

// NewSubscriptionReconciler creates a new reconciler bound to a database handle
func NewSubscriptionReconciler(db *gorm.DB) *SubscriptionReconciler {
	return &SubscriptionReconciler{db: db}
}

// DecodeSignedPayload decodes the signedPayload JWT into a notification.
// Returns nil on any malformed input; it never panics.
func DecodeSignedPayload(signedPayload string) *models.AppStoreNotification {
	payload, err := decodeJWTSegment(signedPayload)
	if err != nil {
		logging.Errorf("Failed to decode notification payload: %v", err)
		return nil
	}

	var notification models.AppStoreNotification
	if err := json.Unmarshal(payload, &notification); err != nil {
		logging.Errorf("Failed to unmarshal notification payload: %v", err)
		return nil
	}
	return &notification
}

// DecodeTransactionInfo decodes a signedTransactionInfo JWT
func DecodeTransactionInfo(token string) *models.TransactionInfo {
	payload, err := decodeJWTSegment(token)
	if err != nil {
		logging.Errorf("Failed to decode transaction info: %v", err)
		return nil
	}

	var info models.TransactionInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		logging.Errorf("Failed to unmarshal transaction info: %v", err)
		return nil
	}
	return &info
}

// DecodeRenewalInfo decodes a signedRenewalInfo JWT
func DecodeRenewalInfo(token string) *models.RenewalInfo {
	payload, err := decodeJWTSegment(token)
	if err != nil {
		logging.Errorf("Failed to decode renewal info: %v", err)
		return nil
	}

	var info models.RenewalInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		logging.Errorf("Failed to unmarshal renewal info: %v", err)
		return nil
	}
	return &info
}

// decodeJWTSegment extracts and decodes the payload segment of a JWT without
// verifying its signature. Apple delivers these over TLS; signature
// verification against Apple's published keys is tracked as an open item in
// DESIGN.md.
func decodeJWTSegment(token string) ([]byte, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}

	// JWT format: header.payload.signature
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT format: expected 3 parts, got %d", len(parts))
	}

	// Pad to a multiple of 4 before base64url decoding
	segment := parts[1]
	if pad := len(segment) % 4; pad != 0 {
		segment += strings.Repeat("=", 4-pad)
	}

	payload, err := base64.URLEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JWT payload: %w", err)
	}
	return payload, nil
}

// EncodeJWTSegment encodes a JSON payload as an unpadded base64url JWT
// segment. Used by the simulation path and tests.
func EncodeJWTSegment(payload []byte) string {
	return base64.RawURLEncoding.EncodeToString(payload)
}

// Process classifies the notification and applies the resulting status to the
// matching user record. It returns an error only for database faults; an
// unresolvable user is logged and dropped since duplicate, out-of-order and
// test notifications are expected.
func (r *SubscriptionReconciler) Process(notification *models.AppStoreNotification) error {
	notificationType := notification.NotificationType
	subtype := notification.Subtype

	logging.Infof("Processing notification - type: %s, subtype: %s, uuid: %s",
		notificationType, subtype, notification.NotificationUUID)

	var transaction *models.TransactionInfo
	var renewal *models.RenewalInfo

	if notification.Data != nil {
		if notification.Data.SignedTransactionInfo != "" {
			transaction = DecodeTransactionInfo(notification.Data.SignedTransactionInfo)
		}
		if notification.Data.SignedRenewalInfo != "" {
			renewal = DecodeRenewalInfo(notification.Data.SignedRenewalInfo)
		}
	}

	switch notificationType {
	case "INITIAL_BUY", "DID_RENEW", "SUBSCRIBED", "OFFER_REDEEMED", "RENEWAL_EXTENDED":
		return r.applyActive(transaction, renewal)

	case "PRICE_INCREASE":
		// Price increase accepted or pending; the subscription stays active
		return r.applyActive(transaction, renewal)

	case "DID_CHANGE_RENEWAL_PREF":
		return r.applyRenewalPreference(transaction, renewal)

	case "DID_CHANGE_RENEWAL_STATUS":
		return r.applyRenewalStatusChange(transaction, renewal)

	case "DID_FAIL_TO_RENEW":
		// Still entitled while Apple retries billing
		return r.applyStatus(transaction, StatusBillingRetry, autoRenewOrDefault(renewal, 0))

	case "EXPIRED", "GRACE_PERIOD_EXPIRED":
		return r.applyStatus(transaction, StatusExpired, 0)

	case "REFUND":
		return r.applyStatus(transaction, StatusRefunded, 0)

	case "REVOKE":
		return r.applyStatus(transaction, StatusRevoked, 0)

	case "CONSUMPTION_REQUEST":
		// Consumable purchases are not sold; nothing to do
		logging.Infof("Consumption request received - no action")
		return nil

	case "EXTERNAL_PURCHASE_TOKEN":
		if subtype == "UNREPORTED" {
			logging.Infof("Unreported external purchase token - external_purchase_id: %s",
				externalPurchaseID(notification))
		} else {
			logging.Infof("External purchase token notification received")
		}
		return nil

	case "TEST":
		logging.Infof("Test notification received - no action needed")
		return nil

	default:
		logging.Infof("Unhandled notification type: %s", notificationType)
		return nil
	}
}

func externalPurchaseID(notification *models.AppStoreNotification) string {
	if notification.ExternalPurchaseToken == nil {
		return ""
	}
	return notification.ExternalPurchaseToken.ExternalPurchaseID
}

// applyActive handles every notification type that leaves the subscription
// entitled and renewing
func (r *SubscriptionReconciler) applyActive(transaction *models.TransactionInfo, renewal *models.RenewalInfo) error {
	if transaction == nil {
		logging.Infof("Notification carried no transaction info, skipping")
		return nil
	}

	return r.ApplyUpdate(SubscriptionUpdate{
		OriginalTransactionID: transaction.OriginalTransactionID,
		ProductID:             transaction.ProductID,
		ExpiresDate:           transaction.ExpiresDate,
		AutoRenewStatus:       autoRenewOrDefault(renewal, 1),
		Environment:           transaction.Environment,
		Status:                StatusActive,
	})
}

// applyRenewalPreference handles DID_CHANGE_RENEWAL_PREF: the user picked a
// different product for the next renewal, so the stored product id follows
// the renewal facts rather than the transaction
func (r *SubscriptionReconciler) applyRenewalPreference(transaction *models.TransactionInfo, renewal *models.RenewalInfo) error {
	if transaction == nil || renewal == nil {
		logging.Infof("Renewal preference change without full facts, skipping")
		return nil
	}

	return r.ApplyUpdate(SubscriptionUpdate{
		OriginalTransactionID: transaction.OriginalTransactionID,
		ProductID:             renewal.AutoRenewProductID,
		ExpiresDate:           transaction.ExpiresDate,
		AutoRenewStatus:       renewal.AutoRenewStatus,
		Environment:           transaction.Environment,
		Status:                StatusActive,
	})
}

// applyRenewalStatusChange handles DID_CHANGE_RENEWAL_STATUS: auto-renew off
// means the subscription is cancelled at period end
func (r *SubscriptionReconciler) applyRenewalStatusChange(transaction *models.TransactionInfo, renewal *models.RenewalInfo) error {
	if transaction == nil || renewal == nil {
		logging.Infof("Renewal status change without full facts, skipping")
		return nil
	}

	status := StatusCancelled
	if renewal.AutoRenewStatus == 1 {
		status = StatusActive
	}

	return r.ApplyUpdate(SubscriptionUpdate{
		OriginalTransactionID: transaction.OriginalTransactionID,
		ProductID:             transaction.ProductID,
		ExpiresDate:           transaction.ExpiresDate,
		AutoRenewStatus:       renewal.AutoRenewStatus,
		Environment:           transaction.Environment,
		Status:                status,
	})
}

func (r *SubscriptionReconciler) applyStatus(transaction *models.TransactionInfo, status string, autoRenew int) error {
	if transaction == nil {
		logging.Infof("Notification carried no transaction info, skipping")
		return nil
	}

	return r.ApplyUpdate(SubscriptionUpdate{
		OriginalTransactionID: transaction.OriginalTransactionID,
		ProductID:             transaction.ProductID,
		ExpiresDate:           transaction.ExpiresDate,
		AutoRenewStatus:       autoRenew,
		Environment:           transaction.Environment,
		Status:                status,
	})
}

func autoRenewOrDefault(renewal *models.RenewalInfo, def int) int {
	if renewal == nil {
		return def
	}
	return renewal.AutoRenewStatus
}

// ApplyUpdate resolves the target user and overwrites the subscription
// fields. Last write wins; there is no ordering check between notifications.
func (r *SubscriptionReconciler) ApplyUpdate(update SubscriptionUpdate) error {
	logging.Infof("Subscription update - original_transaction: %s, product: %s, status: %s",
		update.OriginalTransactionID, update.ProductID, update.Status)

	userID, err := r.resolveUser(update.OriginalTransactionID, update.ProductID)
	if err != nil {
		return fmt.Errorf("failed to query candidate users: %w", err)
	}
	if userID == "" {
		logging.Infof("No user found for transaction %s - expected for TEST notifications or purchases not yet recorded",
			update.OriginalTransactionID)
		return nil
	}

	persisted := CollapseStatus(update.Status)

	var expiresAt *time.Time
	if update.ExpiresDate > 0 {
		t := time.Unix(update.ExpiresDate, 0).UTC()
		expiresAt = &t
	}

	result := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"subscription_status":     persisted,
			"subscription_product_id": update.ProductID,
			"subscription_expires_at": expiresAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update user subscription: %w", result.Error)
	}

	logging.Infof("Updated user %s - status: %s, product: %s", userID, persisted, update.ProductID)
	return nil
}

// resolveUser matches a notification to a user record. Candidates are users
// whose stored receipt data contains the original transaction id or whose
// stored product id matches. A receipt substring match always wins; a lone
// product-id candidate is accepted; anything else is unresolvable.
func (r *SubscriptionReconciler) resolveUser(originalTransactionID, productID string) (string, error) {
	// An empty transaction id would turn the candidate query into a match-all
	if originalTransactionID == "" {
		logging.Infof("Notification carried no original transaction id, skipping resolution")
		return "", nil
	}

	candidates, err := database.FindSubscriptionCandidates(r.db, originalTransactionID, productID)
	if err != nil {
		return "", err
	}

	logging.Infof("Found %d candidate users for transaction %s", len(candidates), originalTransactionID)

	for _, user := range candidates {
		if user.SubscriptionReceiptData != "" &&
			strings.Contains(user.SubscriptionReceiptData, originalTransactionID) {
			logging.Infof("Exact receipt match for transaction %s: user %s", originalTransactionID, user.ID)
			return user.ID, nil
		}
	}

	if len(candidates) == 1 {
		logging.Infof("Using product id match (no receipt match): user %s", candidates[0].ID)
		return candidates[0].ID, nil
	}

	return "", nil
}

// CollapseStatus maps internal billing statuses onto the persisted
// entitlement. Billing retry keeps the user entitled while Apple retries.
func CollapseStatus(status string) string {
	switch status {
	case StatusActive, StatusBillingRetry:
		return models.SubscriptionPremium
	case StatusExpired, StatusCancelled, StatusRefunded, StatusRevoked:
		return models.SubscriptionFree
	default:
		return models.SubscriptionFree
	}
}
