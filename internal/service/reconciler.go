package service

import (
	"context"
	"fmt"
	"time"

	"music-store/internal/apperrors"
	"music-store/internal/broker"
	"music-store/internal/models"
	"music-store/internal/payments"
	"music-store/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcilerStore is the slice of the store the reconciler needs.
type ReconcilerStore interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	RecordOrder(ctx context.Context, order *models.Order, items []models.OrderItem) (bool, error)
}

// Reconciler converts a provider-confirmed checkout session into local order
// state, exactly once. It is called from two independent triggers — the
// client returning from the provider and the provider's webhook — and must
// behave identically for both, under arbitrary repetition and concurrency.
type Reconciler struct {
	store  ReconcilerStore
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewReconciler creates a new order reconciler. events may be nil when no
// broker is configured.
func NewReconciler(store ReconcilerStore, events *broker.EventPublisher) *Reconciler {
	return &Reconciler{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// Reconcile records one order plus its line items for the session. Unit
// prices are re-fetched from the catalog at reconciliation time; a product
// that has disappeared since checkout is skipped rather than failing the
// order. Idempotency comes entirely from the unique constraint on the
// session id inside RecordOrder.
func (r *Reconciler) Reconcile(ctx context.Context, session *payments.CheckoutSession) error {
	ctx, span := util.StartSpan(ctx, "Reconciler.Reconcile")
	defer span.End()

	if session == nil || session.ID == "" {
		util.OrdersFailedTotal.WithLabelValues("invalid_session").Inc()
		return fmt.Errorf("%w: missing session id", apperrors.ErrInvalidSession)
	}

	meta, err := models.ParseSessionMetadata(session.Metadata)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_metadata").Inc()
		return err
	}

	quantities := meta.Quantities()
	productIDs := make([]int64, 0, len(quantities))
	for id := range quantities {
		productIDs = append(productIDs, id)
	}

	products, err := r.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return fmt.Errorf("failed to load products: %w", err)
	}

	priceByID := make(map[int64]float64, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.Price
	}

	status := models.OrderStatusPending
	if session.PaymentStatus == payments.PaymentStatusPaid {
		status = models.OrderStatusPaid
	}
	currency := session.Currency
	if currency == "" {
		currency = "usd"
	}

	order := &models.Order{
		UserID:                meta.UserID,
		StripeSessionID:       session.ID,
		StripePaymentIntentID: session.PaymentIntentID,
		TotalAmount:           float64(session.AmountTotal) / 100,
		Currency:              currency,
		Status:                status,
	}

	items := make([]models.OrderItem, 0, len(quantities))
	for productID, quantity := range quantities {
		price, ok := priceByID[productID]
		if !ok {
			// catalog entry removed between checkout and reconciliation
			r.logger.Warn("Skipping product with no current price",
				zap.Int64("product_id", productID),
				zap.String("session_id", session.ID))
			continue
		}
		items = append(items, models.OrderItem{
			ProductID: productID,
			UnitPrice: price,
			Quantity:  quantity,
		})
	}

	created, err := r.store.RecordOrder(ctx, order, items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return fmt.Errorf("failed to record order: %w", err)
	}

	if !created {
		util.OrdersDuplicateTotal.Inc()
		r.logger.Info("Duplicate reconciliation collapsed",
			zap.String("session_id", session.ID))
		return nil
	}

	util.OrdersRecordedTotal.Inc()
	r.logger.Info("Order recorded",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.String("session_id", session.ID))

	r.publishOrderRecorded(ctx, order, items)
	return nil
}

func (r *Reconciler) publishOrderRecorded(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if r.events == nil {
		return
	}

	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.OrderRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderRecorded,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		UserID:      order.UserID,
		SessionID:   order.StripeSessionID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		Items:       eventItems,
	}

	if err := r.events.PublishOrderRecorded(ctx, event); err != nil {
		r.logger.Error("Failed to publish OrderRecorded event", zap.Error(err))
	}
}
