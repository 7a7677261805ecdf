package models

import "time"

// User roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Order statuses
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// User represents a registered account
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Product represents a catalog item
type Product struct {
	ID            int64     `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Composer      string    `db:"composer" json:"composer"`
	Arranger      *string   `db:"arranger" json:"arranger"`
	Price         float64   `db:"price" json:"price"`
	ThumbnailPath *string   `db:"thumbnail_path" json:"thumbnail_path"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ProductFiles holds the stored asset paths for a product
type ProductFiles struct {
	ID        int64   `db:"id" json:"id"`
	ProductID int64   `db:"product_id" json:"product_id"`
	PDFPath   *string `db:"pdf_path" json:"pdf_path"`
	MP3Path   *string `db:"mp3_path" json:"mp3_path"`
}

// CatalogEntry is a product joined with its file paths
type CatalogEntry struct {
	ID       int64   `db:"id" json:"id"`
	Title    string  `db:"title" json:"title"`
	Composer string  `db:"composer" json:"composer"`
	Arranger *string `db:"arranger" json:"arranger"`
	Price    float64 `db:"price" json:"price"`
	PDFPath  *string `db:"pdf_path" json:"pdf_path"`
	MP3Path  *string `db:"mp3_path" json:"mp3_path"`
}

// Order represents one completed payment. StripeSessionID is unique and acts
// as the idempotency key for reconciliation.
type Order struct {
	ID                    int64     `db:"id" json:"id"`
	UserID                int64     `db:"user_id" json:"user_id"`
	StripeSessionID       string    `db:"stripe_session_id" json:"stripe_session_id"`
	StripePaymentIntentID *string   `db:"stripe_payment_intent_id" json:"stripe_payment_intent_id,omitempty"`
	TotalAmount           float64   `db:"total_amount" json:"total_amount"`
	Currency              string    `db:"currency" json:"currency"`
	Status                string    `db:"status" json:"status"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// OrderItem is one distinct product within an order. UnitPrice is captured at
// purchase time and never follows later catalog price changes.
type OrderItem struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	UnitPrice float64   `db:"unit_price" json:"unit_price"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Purchase is one row of the purchases listing: a paid order item joined with
// its order and product.
type Purchase struct {
	ID            int64     `db:"id" json:"id"`
	Quantity      int       `db:"quantity" json:"quantity"`
	Price         float64   `db:"price" json:"price"`
	PurchaseDate  time.Time `db:"purchase_date" json:"purchase_date"`
	ProductID     int64     `db:"product_id" json:"product_id"`
	Title         string    `db:"title" json:"title"`
	Composer      string    `db:"composer" json:"composer"`
	Arranger      *string   `db:"arranger" json:"arranger"`
	ThumbnailPath *string   `db:"thumbnail_path" json:"thumbnail_path"`
}

// EntitledDownload is the result of the entitlement join for a download
// request: the product title plus whatever file paths were stored for it.
type EntitledDownload struct {
	Title   string  `db:"title"`
	PDFPath *string `db:"pdf_path"`
	MP3Path *string `db:"mp3_path"`
}

// ProductFilePaths collects every on-disk path owned by a product, used when
// deleting it.
type ProductFilePaths struct {
	PDFPath       *string `db:"pdf_path"`
	MP3Path       *string `db:"mp3_path"`
	ThumbnailPath *string `db:"thumbnail_path"`
}

// ProductPage is a paginated slice of active products
type ProductPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}
