// Package payments wraps the Stripe API behind small domain types so the
// checkout and reconciliation services never handle provider structs
// directly.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// PaymentStatusPaid is the provider's settled-payment status.
const PaymentStatusPaid = "paid"

// CheckoutSession is the provider-owned session reduced to the attributes the
// core needs. Metadata is the only carrier of domain intent across the
// payment round-trip.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID *string
	PaymentStatus   string
	AmountTotal     int64 // cents
	Currency        string
	Metadata        map[string]string
}

// LineItem prices one product within a session, in cents.
type LineItem struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

// CreateSessionRequest describes a hosted checkout session to create.
type CreateSessionRequest struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// StripeClient talks to the Stripe checkout API with a bounded per-call
// timeout.
type StripeClient struct {
	timeout time.Duration
}

// NewStripeClient configures the Stripe SDK. Fails when no secret key is
// configured so the misconfiguration surfaces at startup, not mid-checkout.
func NewStripeClient(secretKey string, timeout time.Duration) (*StripeClient, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is not configured")
	}
	stripe.Key = secretKey
	return &StripeClient{timeout: timeout}, nil
}

// CreateCheckoutSession creates a provider-hosted payment session.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, req *CreateSessionRequest) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(item.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return FromStripeSession(sess), nil
}

// RetrieveCheckoutSession fetches a session by id.
func (c *StripeClient) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}
	return FromStripeSession(sess), nil
}

// FromStripeSession converts the provider struct into the domain session.
func FromStripeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	converted := &CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		id := sess.PaymentIntent.ID
		converted.PaymentIntentID = &id
	}
	return converted
}
