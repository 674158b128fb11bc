package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// VerifyOutcome is the gateway's definitive answer for a reference.
type VerifyOutcome string

const (
	OutcomeSuccess VerifyOutcome = "success"
	OutcomeFailure VerifyOutcome = "failure"
)

type InitializeRequest struct {
	Email     string
	Amount    decimal.Decimal
	Reference string
}

type InitializeResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

type VerifyResult struct {
	Reference string
	Outcome   VerifyOutcome
	// Amount as reported by the gateway, in major currency units. This is
	// the figure reconciliation trusts, never the caller's.
	Amount decimal.Decimal
	PaidAt time.Time
}

// Client wraps the two remote calls the wallet core consumes from the
// payment gateway. Implementations return errors.ErrGatewayUnavailable for
// transport failures and 5xx responses; a payment the gateway definitively
// declined is not an error but a VerifyResult with OutcomeFailure.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}
