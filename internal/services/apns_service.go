package services

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chores-backend/pkg/logging"

	"github.com/golang-jwt/jwt/v5"
)

const (
	apnsProductionHost = "https://api.push.apple.com"
	apnsSandboxHost    = "https://api.sandbox.push.apple.com"
)

// APNsConfig holds the provider credentials for Apple's push service
type APNsConfig struct {
	KeyID       string
	TeamID      string
	PrivateKey  string // PEM encoded PKCS#8 EC key, \n escapes accepted
	BundleID    string
	Environment string // "sandbox" or "production"
}

// Configured reports whether all required credentials are present
func (c APNsConfig) Configured() bool {
	return c.KeyID != "" && c.TeamID != "" && c.PrivateKey != "" && c.BundleID != ""
}

// APNsClient sends push notifications through Apple's push gateway
type APNsClient struct {
	config     APNsConfig
	httpClient *http.Client
}

// NewAPNsClient creates a new APNs client
func NewAPNsClient(config APNsConfig) *APNsClient {
	return &APNsClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// PushPayload is the APNs request body
type PushPayload struct {
	APS  APSBody                `json:"aps"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// APSBody is the aps dictionary of an APNs payload
type APSBody struct {
	Alert APSAlert `json:"alert"`
	Sound string   `json:"sound"`
}

// APSAlert carries the visible notification content
type APSAlert struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewAlertPayload builds a standard alert payload
func NewAlertPayload(title, body string, data map[string]interface{}) PushPayload {
	return PushPayload{
		APS: APSBody{
			Alert: APSAlert{Title: title, Body: body},
			Sound: "default",
		},
		Data: data,
	}
}

// ProviderToken generates a short-lived ES256 provider token for APNs
// authentication. A fresh token is generated per delivery invocation.
func (c *APNsClient) ProviderToken() (string, error) {
	key, err := c.signingKey()
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": c.config.TeamID,
		"iat": time.Now().Unix(),
	})
	token.Header["kid"] = c.config.KeyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign provider token: %w", err)
	}
	return signed, nil
}

// signingKey parses the configured PEM private key
func (c *APNsClient) signingKey() (*ecdsa.PrivateKey, error) {
	// Env vars often carry the key with literal \n escapes
	pemData := strings.ReplaceAll(c.config.PrivateKey, `\n`, "\n")

	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block of APNs private key")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs private key: %w", err)
	}

	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("APNs private key is not an EC key")
	}
	return key, nil
}

// Send submits one push request for a single device token. Any non-2xx
// response from the gateway is returned as an error; the caller decides how
// to aggregate per-device failures.
func (c *APNsClient) Send(ctx context.Context, deviceToken, providerToken string, payload PushPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	url := fmt.Sprintf("%s/3/device/%s", c.host(), deviceToken)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+providerToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apns-topic", c.config.BundleID)
	req.Header.Set("apns-priority", "10")
	req.Header.Set("apns-push-type", "alert")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("APNs request failed: %d %s", resp.StatusCode, string(respBody))
	}

	logging.Infof("Push delivered - device: %s..., status: %d", truncateToken(deviceToken), resp.StatusCode)
	return nil
}

func (c *APNsClient) host() string {
	if c.config.Environment == "production" {
		return apnsProductionHost
	}
	return apnsSandboxHost
}

// truncateToken shortens a device token for log output
func truncateToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}
