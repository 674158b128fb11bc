package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"ebuspay/internal/errors"
	"ebuspay/internal/service"
)

const signatureHeader = "X-Paystack-Signature"

// WebhookHandler accepts Paystack event deliveries. Verification runs
// through the same reconciliation path as a client-initiated verify, so
// duplicate deliveries of the same event are harmless.
type WebhookHandler struct {
	reconciliation *service.ReconciliationService
	secretKey      string
	logger         *slog.Logger
}

func NewWebhookHandler(reconciliation *service.ReconciliationService, secretKey string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciliation: reconciliation,
		secretKey:      secretKey,
		logger:         logger,
	}
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "failed to read request body"))
		return
	}

	if !h.validSignature(body, r.Header.Get(signatureHeader)) {
		h.logger.Warn("Webhook signature mismatch", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid event payload").WithDetails(err.Error()))
		return
	}

	if event.Event != "charge.success" || event.Data.Reference == "" {
		h.logger.Info("Ignoring webhook event", "event", event.Event)
		w.WriteHeader(http.StatusOK)
		return
	}

	result, err := h.reconciliation.Verify(r.Context(), event.Data.Reference)
	if err != nil {
		// A non-2xx makes the gateway redeliver; only transient failures
		// deserve that. Anything else is acknowledged and logged.
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == errors.GatewayUnavailable {
			writeError(w, appErr)
			return
		}
		h.logger.Warn("Webhook verification not applied",
			"reference", event.Data.Reference, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Info("Webhook verification settled",
		"reference", result.Reference, "status", result.Status)
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) validSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(h.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
