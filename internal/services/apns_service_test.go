package services

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigningKeyPEM(t *testing.T) (string, *ecdsa.PublicKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	pemData := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return string(pemData), &key.PublicKey
}

func TestProviderToken(t *testing.T) {
	pemKey, pub := testSigningKeyPEM(t)

	client := NewAPNsClient(APNsConfig{
		KeyID:       "ABC123DEFG",
		TeamID:      "TEAM123456",
		PrivateKey:  pemKey,
		BundleID:    "com.choresapp.family",
		Environment: "sandbox",
	})

	signed, err := client.ProviderToken()
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(token *jwt.Token) (interface{}, error) {
		return pub, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, "ABC123DEFG", token.Header["kid"])

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "TEAM123456", claims["iss"])
	assert.NotZero(t, claims["iat"])
}

func TestProviderTokenAcceptsEscapedNewlines(t *testing.T) {
	pemKey, _ := testSigningKeyPEM(t)
	escaped := strings.ReplaceAll(pemKey, "\n", `\n`)

	client := NewAPNsClient(APNsConfig{
		KeyID:      "ABC123DEFG",
		TeamID:     "TEAM123456",
		PrivateKey: escaped,
		BundleID:   "com.choresapp.family",
	})

	_, err := client.ProviderToken()
	assert.NoError(t, err)
}

func TestProviderTokenRejectsGarbageKey(t *testing.T) {
	client := NewAPNsClient(APNsConfig{
		KeyID:      "ABC123DEFG",
		TeamID:     "TEAM123456",
		PrivateKey: "not a pem key",
		BundleID:   "com.choresapp.family",
	})

	_, err := client.ProviderToken()
	assert.Error(t, err)
}

func TestAPNsConfigConfigured(t *testing.T) {
	assert.False(t, APNsConfig{}.Configured())
	assert.False(t, APNsConfig{KeyID: "k", TeamID: "t", PrivateKey: "p"}.Configured())
	assert.True(t, APNsConfig{KeyID: "k", TeamID: "t", PrivateKey: "p", BundleID: "b"}.Configured())
}

func TestNewAlertPayloadShape(t *testing.T) {
	payload := NewAlertPayload("Chore done", "Mia finished the dishes", map[string]interface{}{
		"choreId": "42",
	})

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))

	aps, ok := decoded["aps"].(map[string]interface{})
	require.True(t, ok)
	alert, ok := aps["alert"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Chore done", alert["title"])
	assert.Equal(t, "Mia finished the dishes", alert["body"])
	assert.Equal(t, "default", aps["sound"])
	assert.Equal(t, "42", decoded["data"].(map[string]interface{})["choreId"])
}

func TestHostSelection(t *testing.T) {
	prod := NewAPNsClient(APNsConfig{Environment: "production"})
	assert.Equal(t, apnsProductionHost, prod.host())

	sandbox := NewAPNsClient(APNsConfig{Environment: "sandbox"})
	assert.Equal(t, apnsSandboxHost, sandbox.host())

	// Unset environment defaults to sandbox
	assert.Equal(t, apnsSandboxHost, NewAPNsClient(APNsConfig{}).host())
}
