package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func pushRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/push/send", SendPushNotificationHandler)
	return r
}

func TestSendPushRejectsInvalidUserIDs(t *testing.T) {
	// Validation runs before any database access, so no globals are needed
	w := performJSON(t, pushRouter(), "POST", "/api/push/send", gin.H{
		"userIds": []string{"not-a-uuid", "f47ac10b-58cc-4372-a567-0e02b2c3d479"},
		"title":   "Chore reminder",
		"body":    "Time to feed the cat",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error      string   `json:"error"`
		InvalidIDs []string `json:"invalidIds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid user IDs provided", resp.Error)
	assert.Equal(t, []string{"not-a-uuid"}, resp.InvalidIDs)
}

func TestSendPushRejectsNonCanonicalUUIDs(t *testing.T) {
	// uuid.Parse alone accepts these spellings; user records only ever carry
	// the dashed 36-character form, so the request must be rejected
	nonCanonical := []string{
		"f47ac10b58cc4372a5670e02b2c3d479",
		"urn:uuid:f47ac10b-58cc-4372-a567-0e02b2c3d479",
		"{f47ac10b-58cc-4372-a567-0e02b2c3d479}",
	}

	for _, id := range nonCanonical {
		w := performJSON(t, pushRouter(), "POST", "/api/push/send", gin.H{
			"userIds": []string{id},
			"title":   "Chore reminder",
			"body":    "Time to feed the cat",
		})
		require.Equal(t, http.StatusBadRequest, w.Code, "id %q must be rejected", id)

		var resp struct {
			InvalidIDs []string `json:"invalidIds"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, []string{id}, resp.InvalidIDs)
	}
}

func TestSendPushRejectsMissingFields(t *testing.T) {
	cases := map[string]gin.H{
		"no user ids": {"title": "t", "body": "b"},
		"no title":    {"userIds": []string{"f47ac10b-58cc-4372-a567-0e02b2c3d479"}, "body": "b"},
		"no body":     {"userIds": []string{"f47ac10b-58cc-4372-a567-0e02b2c3d479"}, "title": "t"},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := performJSON(t, pushRouter(), "POST", "/api/push/send", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSendPushRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := pushRouter()

	req := httptest.NewRequest("POST", "/api/push/send", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
