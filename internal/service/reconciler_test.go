package service

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"music-store/internal/apperrors"
	"music-store/internal/models"
	"music-store/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderStore enforces the same uniqueness rule as the database: at most
// one order per session id, checked and inserted under one lock.
type fakeOrderStore struct {
	mu        sync.Mutex
	products  map[int64]models.Product
	orders    map[string]*models.Order
	items     map[string][]models.OrderItem
	paid      map[int64]map[int64]bool
	nextOrder int64
}

func newFakeOrderStore(products ...models.Product) *fakeOrderStore {
	f := &fakeOrderStore{
		products:  make(map[int64]models.Product),
		orders:    make(map[string]*models.Order),
		items:     make(map[string][]models.OrderItem),
		paid:      make(map[int64]map[int64]bool),
		nextOrder: 1,
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeOrderStore) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			found = append(found, p)
		}
	}
	return found, nil
}

func (f *fakeOrderStore) RecordOrder(_ context.Context, order *models.Order, items []models.OrderItem) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.orders[order.StripeSessionID]; exists {
		return false, nil
	}
	order.ID = f.nextOrder
	f.nextOrder++
	stored := *order
	f.orders[order.StripeSessionID] = &stored
	f.items[order.StripeSessionID] = append([]models.OrderItem(nil), items...)
	return true, nil
}

func (f *fakeOrderStore) HasPaidProduct(_ context.Context, userID int64, productIDs []int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range productIDs {
		if f.paid[userID][id] {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrderStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func paidSession(id string, userID int64, productIDs string, amountCents int64) *payments.CheckoutSession {
	return &payments.CheckoutSession{
		ID:            id,
		PaymentStatus: payments.PaymentStatusPaid,
		AmountTotal:   amountCents,
		Currency:      "usd",
		Metadata: map[string]string{
			"user_id":     strconv.FormatInt(userID, 10),
			"product_ids": productIDs,
		},
	}
}

func TestReconcileRecordsOrderOnce(t *testing.T) {
	store := newFakeOrderStore(
		models.Product{ID: 5, Title: "Clair de Lune", Price: 4.99},
		models.Product{ID: 7, Title: "Gymnopedie No. 1", Price: 3.50},
	)
	reconciler := NewReconciler(store, nil)
	session := paidSession("cs_test_once", 7, "[5,5,7]", 1348)

	require.NoError(t, reconciler.Reconcile(context.Background(), session))

	// the webhook retries and the client complete-session call collapse
	require.NoError(t, reconciler.Reconcile(context.Background(), session))
	require.NoError(t, reconciler.Reconcile(context.Background(), session))

	assert.Equal(t, 1, store.orderCount())

	order := store.orders["cs_test_once"]
	require.NotNil(t, order)
	assert.Equal(t, int64(7), order.UserID)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.InDelta(t, 13.48, order.TotalAmount, 0.001)

	items := store.items["cs_test_once"]
	require.Len(t, items, 2)
	byProduct := make(map[int64]models.OrderItem, len(items))
	for _, item := range items {
		byProduct[item.ProductID] = item
	}
	assert.Equal(t, 2, byProduct[5].Quantity)
	assert.InDelta(t, 4.99, byProduct[5].UnitPrice, 0.001)
	assert.Equal(t, 1, byProduct[7].Quantity)
	assert.InDelta(t, 3.50, byProduct[7].UnitPrice, 0.001)
}

func TestReconcileConcurrent(t *testing.T) {
	store := newFakeOrderStore(models.Product{ID: 5, Price: 4.99})
	reconciler := NewReconciler(store, nil)
	session := paidSession("cs_test_race", 7, "[5]", 499)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- reconciler.Reconcile(context.Background(), session)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, store.orderCount())
	assert.Len(t, store.items["cs_test_race"], 1)
}

func TestReconcileUnpaidSessionStaysPending(t *testing.T) {
	store := newFakeOrderStore(models.Product{ID: 5, Price: 4.99})
	reconciler := NewReconciler(store, nil)

	session := paidSession("cs_test_pending", 7, "[5]", 499)
	session.PaymentStatus = "unpaid"

	require.NoError(t, reconciler.Reconcile(context.Background(), session))
	assert.Equal(t, models.OrderStatusPending, store.orders["cs_test_pending"].Status)
}

func TestReconcileSkipsVanishedProduct(t *testing.T) {
	store := newFakeOrderStore(models.Product{ID: 5, Price: 4.99})
	reconciler := NewReconciler(store, nil)

	// product 99 was deleted between checkout and reconciliation
	session := paidSession("cs_test_gone", 7, "[5,99]", 499)

	require.NoError(t, reconciler.Reconcile(context.Background(), session))

	items := store.items["cs_test_gone"]
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].ProductID)
}

func TestReconcileRejectsBadInput(t *testing.T) {
	store := newFakeOrderStore()
	reconciler := NewReconciler(store, nil)
	ctx := context.Background()

	err := reconciler.Reconcile(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	err = reconciler.Reconcile(ctx, &payments.CheckoutSession{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	err = reconciler.Reconcile(ctx, &payments.CheckoutSession{
		ID:       "cs_test_meta",
		Metadata: map[string]string{"user_id": "bogus"},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	assert.Equal(t, 0, store.orderCount())
}
