package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		SiteID:  "test-site",
	})
	return client, srv
}

func TestInitiateCharge(t *testing.T) {
	t.Run("success returns payment session", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payment", r.URL.Path)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "test-key", body["apikey"])
			assert.Equal(t, float64(6579), body["amount"])

			json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    "201",
				"message": "CREATED",
				"data": map[string]interface{}{
					"payment_url":   "https://checkout.example/pay/abc",
					"payment_token": "tok-abc",
				},
			})
		})
		defer srv.Close()

		session, err := client.InitiateCharge(context.Background(), ChargeRequest{
			ChargeID: "BLZ-1",
			Amount:   6579,
			Currency: "XOF",
		})
		require.NoError(t, err)
		assert.Equal(t, "BLZ-1", session.ChargeID)
		assert.Equal(t, "https://checkout.example/pay/abc", session.PaymentURL)
		assert.Equal(t, "tok-abc", session.PaymentToken)
	})

	t.Run("non-success code is a rejection", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    "608",
				"message": "MINIMUM_REQUIRED_FIELDS",
			})
		})
		defer srv.Close()

		_, err := client.InitiateCharge(context.Background(), ChargeRequest{ChargeID: "BLZ-2"})
		assert.ErrorIs(t, err, ErrGatewayRejected)
	})

	t.Run("server error is unavailable, not rejected", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		defer srv.Close()

		_, err := client.InitiateCharge(context.Background(), ChargeRequest{ChargeID: "BLZ-3"})
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})

	t.Run("malformed body is unavailable", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>gateway maintenance</html>"))
		})
		defer srv.Close()

		_, err := client.InitiateCharge(context.Background(), ChargeRequest{ChargeID: "BLZ-4"})
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestVerifyCharge(t *testing.T) {
	verdictFor := func(t *testing.T, status string) ChargeVerdict {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payment/check", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": "00",
				"data": map[string]interface{}{"payment_status": status},
			})
		})
		defer srv.Close()

		verdict, err := client.VerifyCharge(context.Background(), "BLZ-1")
		require.NoError(t, err)
		return verdict
	}

	assert.Equal(t, StatusAccepted, verdictFor(t, "ACCEPTED"))
	assert.Equal(t, StatusRefused, verdictFor(t, "REFUSED"))
	assert.Equal(t, StatusPending, verdictFor(t, "WAITING_FOR_CUSTOMER"))
	assert.Equal(t, StatusPending, verdictFor(t, ""))

	t.Run("malformed body keeps the charge pending", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		})
		defer srv.Close()

		verdict, err := client.VerifyCharge(context.Background(), "BLZ-1")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, verdict)
	})

	t.Run("server error propagates as unavailable", func(t *testing.T) {
		client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		defer srv.Close()

		_, err := client.VerifyCharge(context.Background(), "BLZ-1")
		assert.ErrorIs(t, err, ErrGatewayUnavailable)
	})
}

func TestTransfer(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfer", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": "201",
			"data": map[string]interface{}{"transfer_ref": "TRF-99"},
		})
	})
	defer srv.Close()

	ref, err := client.Transfer(context.Background(), TransferRequest{
		TransferID: "PAY-1",
		Amount:     5921,
		Currency:   "XOF",
		Phone:      "+2250701020304",
		Country:    "CI",
		Operator:   "orange_money",
	})
	require.NoError(t, err)
	assert.Equal(t, "TRF-99", ref)
}
