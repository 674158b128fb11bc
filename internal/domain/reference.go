package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IntentPurpose routes an initialized payment: deposits top up the wallet,
// service intents pay for a product through the gateway.
type IntentPurpose string

const (
	PurposeDeposit IntentPurpose = "deposit"
	PurposeService IntentPurpose = "service"
)

func ParsePurpose(s string) (IntentPurpose, error) {
	switch IntentPurpose(strings.ToLower(strings.TrimSpace(s))) {
	case PurposeDeposit:
		return PurposeDeposit, nil
	case PurposeService:
		return PurposeService, nil
	default:
		return "", fmt.Errorf("unknown purpose %q", s)
	}
}

// TransactionType maps the purpose to the ledger entry type recorded for it.
func (p IntentPurpose) TransactionType() TransactionType {
	if p == PurposeService {
		return TypeServicePayment
	}
	return TypeDeposit
}

// NewReference generates a gateway-safe payment reference. Uniqueness is
// ultimately enforced by the ledger's unique constraint, not by this
// generator; the UUID only makes collisions practically impossible.
func NewReference(prefix string) string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(prefix), uuid.New())
}
