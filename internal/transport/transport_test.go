package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	api "github.com/neocertify/neocertify/internal/api/v1"
	"github.com/neocertify/neocertify/internal/service"
	"github.com/neocertify/neocertify/internal/signing"
	"github.com/neocertify/neocertify/internal/store"
	"github.com/neocertify/neocertify/internal/store/model"
)

func newTestHandler(t *testing.T) (*TransportHandler, store.Store) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	st := store.PrepareDBForUnitTests(t, log)
	svc := service.NewServiceHandler(st, signing.NewService("secret", ""), nil, log)
	return NewTransportHandler(svc, "webhook-token", log), st
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthenticatedEndpointsRequireOrgHeader(t *testing.T) {
	require := require.New(t)
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	require.Equal(http.StatusForbidden, rec.Code)
	body := decodeEnvelope(t, rec)
	require.False(body.Success)
	require.Equal(api.ReasonForbidden, body.Error.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set(OrgIDHeader, "not-a-uuid")
	h.ListProducts(rec, req)
	require.Equal(http.StatusForbidden, rec.Code)
}

func TestVerifyEndpointEnvelope(t *testing.T) {
	require := require.New(t)
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest(http.MethodGet, "/api/v1/verify", nil))
	require.Equal(http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	require.False(body.Success)
	require.Equal(api.ReasonValidationError, body.Error.Code)

	rec = httptest.NewRecorder()
	h.Verify(rec, httptest.NewRequest(http.MethodGet, "/api/v1/verify?code=bogus", nil))
	require.Equal(http.StatusNotFound, rec.Code)
	body = decodeEnvelope(t, rec)
	require.Equal(api.ReasonNotFound, body.Error.Code)

	// Inquiry requires one of its two selectors.
	rec = httptest.NewRecorder()
	h.Inquiry(rec, httptest.NewRequest(http.MethodGet, "/api/v1/inquiry", nil))
	require.Equal(http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Inquiry(rec, httptest.NewRequest(http.MethodGet, "/api/v1/inquiry?code=bogus", nil))
	require.Equal(http.StatusOK, rec.Code)
}

func TestWebhookAuthentication(t *testing.T) {
	require := require.New(t)
	h, st := newTestHandler(t)

	mid := "provider-123"
	msg, err := st.Notification().Create(context.Background(), &model.NotificationMessage{
		TemplateCode:      "TREATMENT_CONFIRM",
		Phone:             "01011110001",
		Status:            string(api.MessageStatusPending),
		ProviderMessageID: &mid,
	})
	require.NoError(err)

	payload := `[{"mid":"provider-123","succeeded":true,"sentAt":"2026-02-01 10:00:00"}]`

	// Missing and wrong tokens are rejected.
	rec := httptest.NewRecorder()
	h.AlimtalkWebhook(rec, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/alimtalk", strings.NewReader(payload)))
	require.Equal(http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/alimtalk", strings.NewReader(payload))
	req.Header.Set(WebhookTokenHeader, "wrong")
	h.AlimtalkWebhook(rec, req)
	require.Equal(http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/alimtalk", strings.NewReader(payload))
	req.Header.Set(WebhookTokenHeader, "webhook-token")
	h.AlimtalkWebhook(rec, req)
	require.Equal(http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	require.True(body.Success)

	updated, err := st.Notification().Get(context.Background(), msg.ID)
	require.NoError(err)
	require.Equal(string(api.MessageStatusSent), updated.Status)
	require.NotNil(updated.SentAt)
}
