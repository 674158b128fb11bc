package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"ebuspay/internal/config"
	"ebuspay/internal/errors"
)

var kobo = decimal.NewFromInt(100)

// PaystackClient talks to the Paystack transaction API. Amounts cross the
// wire in kobo (integer minor units) and are converted back to major units
// at the boundary.
type PaystackClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
	logger    *slog.Logger
}

func NewPaystackClient(cfg config.PaystackConfig, logger *slog.Logger) *PaystackClient {
	return &PaystackClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		http:      &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

var _ Client = (*PaystackClient)(nil)

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	PaidAt    string `json:"paid_at"`
}

func (c *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"email":     req.Email,
		"amount":    req.Amount.Mul(kobo).IntPart(),
		"reference": req.Reference,
	})
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to encode initialize request").WithDetails(err.Error())
	}

	envelope, err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var data paystackInitializeData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to decode initialize response").WithDetails(err.Error())
	}

	c.logger.Info("Gateway payment initialized", "reference", data.Reference)
	return &InitializeResult{
		Reference:        data.Reference,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

func (c *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var data paystackVerifyData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to decode verify response").WithDetails(err.Error())
	}

	result := &VerifyResult{
		Reference: data.Reference,
		Outcome:   OutcomeFailure,
		Amount:    decimal.NewFromInt(data.Amount).Div(kobo),
	}
	if data.Status == "success" {
		result.Outcome = OutcomeSuccess
	}
	if data.PaidAt != "" {
		if paidAt, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
			result.PaidAt = paidAt
		}
	}

	c.logger.Info("Gateway verification result",
		"reference", reference, "gateway_status", data.Status, "amount", result.Amount)
	return result, nil
}

func (c *PaystackClient) do(ctx context.Context, method, path string, body io.Reader) (*paystackEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to build gateway request").WithDetails(err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Gateway request failed", "method", method, "path", path, "error", err)
		return nil, errors.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.ErrGatewayUnavailable
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Warn("Gateway returned server error",
			"method", method, "path", path, "status", resp.StatusCode)
		return nil, errors.ErrGatewayUnavailable
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout {
		// Transient: the request was fine, the gateway just could not take
		// it right now. Report it like an outage so callers retry.
		c.logger.Warn("Gateway throttled request",
			"method", method, "path", path, "status", resp.StatusCode)
		return nil, errors.ErrGatewayUnavailable
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var envelope paystackEnvelope
		_ = json.Unmarshal(raw, &envelope)
		c.logger.Warn("Gateway rejected request",
			"method", method, "path", path, "status", resp.StatusCode, "message", envelope.Message)
		return nil, errors.NewAppErrorf(errors.InvalidInput, "gateway rejected request: %s", envelope.Message).
			WithDetails(fmt.Sprintf("http status %d", resp.StatusCode))
	}

	var envelope paystackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to decode gateway response").WithDetails(err.Error())
	}
	return &envelope, nil
}
