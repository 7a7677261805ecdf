package service

import (
	"context"
	"fmt"
	"math"

	"music-store/internal/apperrors"
	"music-store/internal/models"
	"music-store/internal/payments"
	"music-store/internal/util"

	"go.uber.org/zap"
)

// CheckoutStore is the slice of the store the checkout service needs.
type CheckoutStore interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	HasPaidProduct(ctx context.Context, userID int64, productIDs []int64) (bool, error)
}

// PaymentProvider is the external payment API the orchestrator talks to.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req *payments.CreateSessionRequest) (*payments.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*payments.CheckoutSession, error)
}

// CheckoutService prices a cart, creates provider-hosted payment sessions and
// finalizes them when the client returns from the provider.
type CheckoutService struct {
	store       CheckoutStore
	provider    PaymentProvider
	reconciler  *Reconciler
	frontendURL string
	logger      *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store CheckoutStore, provider PaymentProvider, reconciler *Reconciler, frontendURL string) *CheckoutService {
	return &CheckoutService{
		store:       store,
		provider:    provider,
		reconciler:  reconciler,
		frontendURL: frontendURL,
		logger:      util.GetLogger(),
	}
}

// CreateSessionRequest is the checkout creation request body. Repeated ids
// express quantities.
type CreateSessionRequest struct {
	ProductIDs []int64 `json:"productIds" binding:"required"`
}

// CreateSessionResponse carries the provider's hosted checkout URL.
type CreateSessionResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// CompleteSessionRequest finalizes a session after the browser returns.
type CompleteSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// CreateSession prices the requested products and creates a provider session
// carrying {user_id, product_ids} metadata — the only link between the
// provider's session and the local domain. Products the user already paid
// for are rejected before any provider call.
func (s *CheckoutService) CreateSession(ctx context.Context, userID int64, rawProductIDs []int64) (*CreateSessionResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateSession")
	defer span.End()

	productIDs := normalizeProductIDs(rawProductIDs)
	if len(productIDs) == 0 {
		util.CheckoutFailedTotal.WithLabelValues("empty_cart").Inc()
		return nil, fmt.Errorf("%w: at least one product is required", apperrors.ErrInvalidInput)
	}

	quantities := make(map[int64]int, len(productIDs))
	distinct := make([]int64, 0, len(productIDs))
	for _, id := range productIDs {
		if quantities[id] == 0 {
			distinct = append(distinct, id)
		}
		quantities[id]++
	}

	products, err := s.store.GetProductsByIDs(ctx, distinct)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) != len(distinct) {
		util.CheckoutFailedTotal.WithLabelValues("unknown_product").Inc()
		return nil, fmt.Errorf("%w: one or more products are invalid", apperrors.ErrInvalidInput)
	}

	alreadyOwned, err := s.store.HasPaidProduct(ctx, userID, distinct)
	if err != nil {
		return nil, fmt.Errorf("failed to check prior purchases: %w", err)
	}
	if alreadyOwned {
		util.CheckoutFailedTotal.WithLabelValues("already_purchased").Inc()
		return nil, apperrors.ErrAlreadyPurchased
	}

	metadata, err := models.SessionMetadata{UserID: userID, ProductIDs: productIDs}.Encode()
	if err != nil {
		return nil, err
	}

	lineItems := make([]payments.LineItem, 0, len(products))
	for _, product := range products {
		lineItems = append(lineItems, payments.LineItem{
			Name:            product.Title,
			UnitAmountCents: int64(math.Round(product.Price * 100)),
			Quantity:        int64(quantities[product.ID]),
		})
	}

	session, err := s.provider.CreateCheckoutSession(ctx, &payments.CreateSessionRequest{
		LineItems:  lineItems,
		SuccessURL: s.frontendURL + "/my-purchases?checkout=success",
		CancelURL:  s.frontendURL + "/cart?checkout=canceled",
		Metadata:   metadata,
	})
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("provider_error").Inc()
		s.logger.Error("Failed to create checkout session",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	util.CheckoutSessionsCreatedTotal.Inc()
	s.logger.Info("Checkout session created",
		zap.Int64("user_id", userID),
		zap.String("session_id", session.ID))

	return &CreateSessionResponse{URL: session.URL, SessionID: session.ID}, nil
}

// CompleteSession finalizes a session when the client returns from the
// provider. Ownership and payment status are verified against the session
// the provider holds, then the same reconciliation as the webhook path runs.
func (s *CheckoutService) CompleteSession(ctx context.Context, userID int64, sessionID string) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CompleteSession")
	defer span.End()

	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}

	session, err := s.provider.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to retrieve checkout session",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	meta, err := models.ParseSessionMetadata(session.Metadata)
	if err != nil {
		return err
	}
	if meta.UserID != userID {
		return fmt.Errorf("%w: session belongs to a different user", apperrors.ErrForbidden)
	}
	if session.PaymentStatus != payments.PaymentStatusPaid {
		return apperrors.ErrPaymentPending
	}

	return s.reconciler.Reconcile(ctx, session)
}

func normalizeProductIDs(raw []int64) []int64 {
	ids := make([]int64, 0, len(raw))
	for _, id := range raw {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
