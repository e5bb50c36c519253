package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.stripe.com"

// StripeGateway talks to the payment-intents endpoint directly. The order
// id rides along in the intent metadata so the webhook can find its way
// back to the order.
type StripeGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

type StripeOption func(*StripeGateway)

// WithBaseURL points the client at a different API host. Test hook.
func WithBaseURL(base string) StripeOption {
	return func(g *StripeGateway) {
		g.baseURL = strings.TrimRight(base, "/")
	}
}

func WithHTTPClient(c *http.Client) StripeOption {
	return func(g *StripeGateway) {
		g.httpClient = c
	}
}

func NewStripeGateway(secretKey string, opts ...StripeOption) *StripeGateway {
	g := &StripeGateway{
		secretKey: secretKey,
		baseURL:   defaultAPIBase,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Error        *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (g *StripeGateway) CreateIntent(ctx context.Context, orderID string, amount int64, currency string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[orderId]", orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", "order-"+orderID)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment intent request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment intent response: %w", err)
	}

	var parsed intentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "unknown gateway error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("payment intent creation failed (%d): %s", resp.StatusCode, msg)
	}
	if parsed.ClientSecret == "" {
		return nil, fmt.Errorf("payment intent response missing client secret")
	}

	return &Intent{ID: parsed.ID, ClientSecret: parsed.ClientSecret}, nil
}
