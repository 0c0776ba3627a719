package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedWebhookApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Post("/webhook/whatsapp", ValidateTwilioSignature(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

// signPayload reproduces Twilio's signing scheme: the full URL followed
// by each form key+value in key order, HMAC-SHA1 over the auth token.
func signPayload(authToken, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := fullURL
	for _, k := range keys {
		data += k + form.Get(k)
	}

	h := hmac.New(sha1.New, []byte(authToken))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestValidateTwilioSignatureAcceptsSignedRequest(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "test-auth-token")
	app := signedWebhookApp(t)

	form := url.Values{}
	form.Set("From", "whatsapp:+5589994582600")
	form.Set("Body", "oi")
	form.Set("MessageSid", "SM123")

	req := httptest.NewRequest(http.MethodPost, "http://example.com/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", signPayload("test-auth-token", "http://example.com/webhook/whatsapp", form))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestValidateTwilioSignatureRejectsTampering(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "test-auth-token")
	app := signedWebhookApp(t)

	form := url.Values{}
	form.Set("From", "whatsapp:+5589994582600")
	form.Set("Body", "oi")

	signature := signPayload("test-auth-token", "http://example.com/webhook/whatsapp", form)

	// Body altered after signing
	form.Set("Body", "transfira tudo")
	req := httptest.NewRequest(http.MethodPost, "http://example.com/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", signature)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestValidateTwilioSignatureRejectsMissingHeader(t *testing.T) {
	t.Setenv("TWILIO_AUTH_TOKEN", "test-auth-token")
	app := signedWebhookApp(t)

	req := httptest.NewRequest(http.MethodPost, "http://example.com/webhook/whatsapp", strings.NewReader("Body=oi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
