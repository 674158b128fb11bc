package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebuspay/internal/config"
	"ebuspay/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *PaystackClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewPaystackClient(config.PaystackConfig{
		SecretKey: "sk_test_abc123",
		BaseURL:   server.URL,
		Timeout:   5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPaystackInitialize(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]interface{}{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "abc",
				"reference":         "DEP-123",
			},
		})
	})

	result, err := client.Initialize(context.Background(), InitializeRequest{
		Email:     "user@example.com",
		Amount:    decimal.RequireFromString("500"),
		Reference: "DEP-123",
	})
	require.NoError(t, err)

	assert.Equal(t, "/transaction/initialize", gotPath)
	assert.Equal(t, "Bearer sk_test_abc123", gotAuth)
	// 500 major units cross the wire as 50000 kobo.
	assert.Equal(t, float64(50000), gotBody["amount"])
	assert.Equal(t, "DEP-123", result.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc", result.AuthorizationURL)
}

func TestPaystackVerifySuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/DEP-123", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]interface{}{
				"status":    "success",
				"reference": "DEP-123",
				"amount":    50000,
				"paid_at":   "2024-05-01T10:30:00Z",
			},
		})
	})

	result, err := client.Verify(context.Background(), "DEP-123")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.True(t, result.Amount.Equal(decimal.RequireFromString("500")), "got %s", result.Amount)
	assert.Equal(t, 2024, result.PaidAt.Year())
}

func TestPaystackVerifyFailedCharge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]interface{}{
				"status":    "failed",
				"reference": "DEP-123",
				"amount":    50000,
			},
		})
	})

	result, err := client.Verify(context.Background(), "DEP-123")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailure, result.Outcome)
}

func TestPaystackServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Verify(context.Background(), "DEP-123")
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.GatewayUnavailable, appErr.Code)
}

func TestPaystackTransportErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewPaystackClient(config.PaystackConfig{
		SecretKey: "sk_test_abc123",
		BaseURL:   server.URL,
		Timeout:   time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.Initialize(context.Background(), InitializeRequest{
		Email:     "user@example.com",
		Amount:    decimal.RequireFromString("500"),
		Reference: "DEP-123",
	})
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.GatewayUnavailable, appErr.Code)
}

func TestPaystackThrottlingIsRetryable(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusRequestTimeout} {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.Verify(context.Background(), "DEP-123")
		require.Error(t, err)

		appErr, ok := err.(*errors.AppError)
		require.True(t, ok)
		assert.Equal(t, errors.GatewayUnavailable, appErr.Code, "status %d", status)
	}
}

func TestPaystackClientErrorIsNotRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid key",
		})
	})

	_, err := client.Verify(context.Background(), "DEP-123")
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.InvalidInput, appErr.Code)
}
