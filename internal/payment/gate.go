package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/retropress/retropress/internal/config"
)

// Tier identifies one of the two priced pipeline stages.
type Tier string

const (
	TierText   Tier = "retropress_text"
	TierImages Tier = "retropress_images"
)

// TierInfo describes one purchasable stage for the pricing catalogue.
type TierInfo struct {
	Tier        Tier   `json:"tier"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

// demoTokenPrefix marks confirmation tokens issued in test mode.
const demoTokenPrefix = "demo_"

// Gate wraps the Stripe PaymentIntent API. In test mode Stripe is never
// called; deterministic demo tokens are issued instead.
type Gate struct {
	cfg    config.PaymentConfig
	logger *slog.Logger
}

// New creates a payment gate. The Stripe key is installed process-wide,
// matching how the stripe-go client is designed to be configured.
func New(cfg config.PaymentConfig, stripeKey string, logger *slog.Logger) *Gate {
	if !cfg.TestMode {
		stripe.Key = stripeKey
	}
	return &Gate{
		cfg:    cfg,
		logger: logger.With("component", "payment"),
	}
}

// Tiers lists the purchasable stages for the pricing endpoint.
func (g *Gate) Tiers() []TierInfo {
	return []TierInfo{
		{
			Tier:        TierText,
			Name:        "記事生成",
			Description: "記念日新聞のテキスト生成（画像なし）",
			Amount:      g.cfg.TextPrice,
			Currency:    g.cfg.Currency,
		},
		{
			Tier:        TierImages,
			Name:        "画像追加",
			Description: "記事に画像を追加 + PDF出力無料",
			Amount:      g.cfg.ImagePrice,
			Currency:    g.cfg.Currency,
		},
	}
}

// Amount returns the price of a tier in the smallest currency unit.
func (g *Gate) Amount(tier Tier) (int64, error) {
	switch tier {
	case TierText:
		return g.cfg.TextPrice, nil
	case TierImages:
		return g.cfg.ImagePrice, nil
	}
	return 0, fmt.Errorf("unknown pricing tier %q", tier)
}

// Confirm creates a payment for the given stage and returns its
// confirmation token. The token is later accepted by Verify.
func (g *Gate) Confirm(ctx context.Context, tier Tier, metadata map[string]string) (string, error) {
	amount, err := g.Amount(tier)
	if err != nil {
		return "", err
	}

	if g.cfg.TestMode {
		token := demoTokenPrefix + uuid.NewString()
		g.logger.Info("Issued demo payment token", "tier", tier, "amount", amount)
		return token, nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(g.cfg.Currency),
		Metadata: map[string]string{
			"product_id": string(tier),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.Metadata[k] = v
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	g.logger.Info("Created payment intent", "tier", tier, "amount", amount, "intent_id", pi.ID)
	return pi.ID, nil
}

// Verify reports whether a confirmation token represents a settled payment.
func (g *Gate) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	if g.cfg.TestMode {
		return strings.HasPrefix(token, demoTokenPrefix), nil
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(token, params)
	if err != nil {
		return false, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	return pi.Status == stripe.PaymentIntentStatusSucceeded, nil
}

// Refund returns a stage payment to the customer.
func (g *Gate) Refund(ctx context.Context, token, reason string) error {
	if g.cfg.TestMode {
		g.logger.Info("Demo refund", "token", token, "reason", reason)
		return nil
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(token),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
		Metadata: map[string]string{
			"custom_reason": reason,
		},
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}
	return nil
}
