package service

import (
	"context"
	"testing"

	"music-store/internal/apperrors"
	"music-store/internal/models"
	"music-store/internal/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider records created sessions and serves retrievals from memory.
type fakeProvider struct {
	created  []*payments.CreateSessionRequest
	sessions map[string]*payments.CheckoutSession
	nextID   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]*payments.CheckoutSession)}
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, req *payments.CreateSessionRequest) (*payments.CheckoutSession, error) {
	f.created = append(f.created, req)
	f.nextID++

	var total int64
	for _, item := range req.LineItems {
		total += item.UnitAmountCents * item.Quantity
	}

	id := "cs_test_" + string(rune('a'+f.nextID-1))
	session := &payments.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.example.com/" + id,
		PaymentStatus: "unpaid",
		AmountTotal:   total,
		Currency:      "usd",
		Metadata:      req.Metadata,
	}
	f.sessions[id] = session
	return session, nil
}

func (f *fakeProvider) RetrieveCheckoutSession(_ context.Context, sessionID string) (*payments.CheckoutSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, assert.AnError
	}
	return session, nil
}

func (f *fakeProvider) markPaid(sessionID string) {
	f.sessions[sessionID].PaymentStatus = payments.PaymentStatusPaid
}

func newCheckoutFixture(products ...models.Product) (*CheckoutService, *fakeOrderStore, *fakeProvider) {
	store := newFakeOrderStore(products...)
	provider := newFakeProvider()
	reconciler := NewReconciler(store, nil)
	svc := NewCheckoutService(store, provider, reconciler, "http://localhost:5173")
	return svc, store, provider
}

func TestCreateSession(t *testing.T) {
	svc, _, provider := newCheckoutFixture(
		models.Product{ID: 5, Title: "Clair de Lune", Price: 4.99},
		models.Product{ID: 7, Title: "Gymnopedie No. 1", Price: 3.50},
	)

	resp, err := svc.CreateSession(context.Background(), 7, []int64{5, 5, 7})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_a", resp.SessionID)
	assert.Equal(t, "https://checkout.example.com/cs_test_a", resp.URL)

	require.Len(t, provider.created, 1)
	req := provider.created[0]

	// duplicates survive in metadata as quantities; line items collapse them
	assert.Equal(t, "7", req.Metadata["user_id"])
	assert.Equal(t, "[5,5,7]", req.Metadata["product_ids"])

	require.Len(t, req.LineItems, 2)
	byName := make(map[string]payments.LineItem, len(req.LineItems))
	for _, item := range req.LineItems {
		byName[item.Name] = item
	}
	assert.Equal(t, int64(499), byName["Clair de Lune"].UnitAmountCents)
	assert.Equal(t, int64(2), byName["Clair de Lune"].Quantity)
	assert.Equal(t, int64(350), byName["Gymnopedie No. 1"].UnitAmountCents)
	assert.Equal(t, int64(1), byName["Gymnopedie No. 1"].Quantity)

	assert.Equal(t, "http://localhost:5173/my-purchases?checkout=success", req.SuccessURL)
	assert.Equal(t, "http://localhost:5173/cart?checkout=canceled", req.CancelURL)
}

func TestCreateSessionEmptyCart(t *testing.T) {
	svc, _, _ := newCheckoutFixture()

	_, err := svc.CreateSession(context.Background(), 7, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// non-positive ids are filtered before validation
	_, err = svc.CreateSession(context.Background(), 7, []int64{0, -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateSessionUnknownProduct(t *testing.T) {
	svc, _, provider := newCheckoutFixture(models.Product{ID: 5, Price: 4.99})

	_, err := svc.CreateSession(context.Background(), 7, []int64{5, 99})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, provider.created)
}

func TestCreateSessionAlreadyPurchased(t *testing.T) {
	svc, store, provider := newCheckoutFixture(models.Product{ID: 5, Price: 4.99})
	store.paid[7] = map[int64]bool{5: true}

	_, err := svc.CreateSession(context.Background(), 7, []int64{5})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyPurchased)
	assert.Empty(t, provider.created)
}

func TestCompleteSession(t *testing.T) {
	svc, store, provider := newCheckoutFixture(models.Product{ID: 5, Price: 4.99})
	ctx := context.Background()

	resp, err := svc.CreateSession(ctx, 7, []int64{5})
	require.NoError(t, err)

	// provider has not confirmed payment yet
	err = svc.CompleteSession(ctx, 7, resp.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrPaymentPending)
	assert.Equal(t, 0, store.orderCount())

	provider.markPaid(resp.SessionID)

	// a different authenticated user cannot claim the session
	err = svc.CompleteSession(ctx, 8, resp.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, 0, store.orderCount())

	require.NoError(t, svc.CompleteSession(ctx, 7, resp.SessionID))
	assert.Equal(t, 1, store.orderCount())

	// a retry after success is a no-op
	require.NoError(t, svc.CompleteSession(ctx, 7, resp.SessionID))
	assert.Equal(t, 1, store.orderCount())
}

func TestCompleteSessionEmptyID(t *testing.T) {
	svc, _, _ := newCheckoutFixture()

	err := svc.CompleteSession(context.Background(), 7, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
