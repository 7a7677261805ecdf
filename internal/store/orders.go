package store

import (
	"context"
	"database/sql"

	"music-store/internal/models"

	"github.com/lib/pq"
)

// RecordOrder durably records one order plus its line items. The insert is
// keyed by the provider session id with conflict-do-nothing semantics: if an
// order for this session already exists the transaction commits immediately
// without touching order_items. This single statement is the entire
// idempotency guarantee for reconciliation — no application-level locking is
// involved. Returns whether a new order row was created.
func (s *Store) RecordOrder(ctx context.Context, order *models.Order, items []models.OrderItem) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var orderID int64
	err = tx.GetContext(ctx, &orderID, `
		INSERT INTO orders
			(user_id, stripe_session_id, stripe_payment_intent_id, total_amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (stripe_session_id) DO NOTHING
		RETURNING id`,
		order.UserID, order.StripeSessionID, order.StripePaymentIntentID,
		order.TotalAmount, order.Currency, order.Status)
	if err == sql.ErrNoRows {
		// another reconciliation already won for this session
		return false, tx.Commit()
	}
	if err != nil {
		return false, err
	}

	order.ID = orderID
	for i := range items {
		items[i].OrderID = orderID
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, unit_price, quantity)
			VALUES ($1, $2, $3, $4)`,
			orderID, items[i].ProductID, items[i].UnitPrice, items[i].Quantity)
		if err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

// HasPaidProduct reports whether the user already has any of the given
// products in a paid order.
func (s *Store) HasPaidProduct(ctx context.Context, userID int64, productIDs []int64) (bool, error) {
	if len(productIDs) == 0 {
		return false, nil
	}

	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1
			  AND o.status = 'paid'
			  AND oi.product_id = ANY($2::int[])
		)`,
		userID, pq.Array(productIDs))
	return exists, err
}

// ListPurchases retrieves the user's paid order items joined with their
// products, newest first.
func (s *Store) ListPurchases(ctx context.Context, userID int64) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.SelectContext(ctx, &purchases, `
		SELECT
			oi.id,
			oi.quantity,
			oi.unit_price AS price,
			o.created_at AS purchase_date,
			p.id AS product_id,
			p.title,
			p.composer,
			p.arranger,
			p.thumbnail_path
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE o.user_id = $1
		  AND o.status = 'paid'
		ORDER BY o.created_at DESC, oi.id DESC`,
		userID)
	return purchases, err
}

// GetEntitledDownload resolves a download request through the entitlement
// join. Returns (nil, nil) both when the product does not exist and when the
// user has no paid order for it — the two cases are indistinguishable to
// callers.
func (s *Store) GetEntitledDownload(ctx context.Context, userID, productID int64) (*models.EntitledDownload, error) {
	var download models.EntitledDownload
	err := s.db.GetContext(ctx, &download, `
		SELECT
			p.title,
			pf.pdf_path,
			pf.mp3_path
		FROM products p
		LEFT JOIN product_files pf ON pf.product_id = p.id
		WHERE p.id = $1
		  AND EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $2
			  AND o.status = 'paid'
			  AND oi.product_id = p.id
		  )
		LIMIT 1`,
		productID, userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &download, nil
}
