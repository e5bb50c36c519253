// Package payment wraps the payment provider: intent creation, the
// confirmation step owned by the mobile client, and verification of the
// provider's signed webhook events.
package payment

import (
	"context"
)

// Intent is a provider payment intent the client can confirm with the
// ClientSecret.
type Intent struct {
	ID           string
	ClientSecret string
}

// Gateway creates payment intents. The amount passed here is the
// authoritative one recomputed from the catalog; client-supplied totals
// never reach the gateway.
type Gateway interface {
	CreateIntent(ctx context.Context, orderID string, amount int64, currency string) (*Intent, error)
}

// Confirmer abstracts the client-side payment sheet. The embedded mobile
// app implements it over the provider SDK; tests stub it.
type Confirmer interface {
	Confirm(ctx context.Context, clientSecret string) error
}
