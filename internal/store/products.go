package store

import (
	"context"
	"database/sql"

	"music-store/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetCatalog retrieves every product joined with its file paths, regardless
// of active status.
func (s *Store) GetCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	var entries []models.CatalogEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT p.id, p.title, p.composer, p.arranger, p.price,
		       pf.pdf_path, pf.mp3_path
		FROM products p
		LEFT JOIN product_files pf ON pf.product_id = p.id
		ORDER BY p.id`)
	return entries, err
}

// GetLatestActiveProducts retrieves the newest active products up to limit.
func (s *Store) GetLatestActiveProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		WHERE is_active = TRUE
		ORDER BY id DESC
		LIMIT $1`,
		limit)
	return products, err
}

// GetActiveProducts retrieves a page of active products, newest first.
func (s *Store) GetActiveProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		WHERE is_active = TRUE
		ORDER BY id DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	return products, err
}

// CountActiveProducts returns the total number of active products.
func (s *Store) CountActiveProducts(ctx context.Context) (int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM products WHERE is_active = TRUE`)
	return total, err
}

// GetActiveProductByID retrieves one active product. Returns (nil, nil) when
// the product is absent or inactive.
func (s *Store) GetActiveProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, `
		SELECT * FROM products
		WHERE id = $1 AND is_active = TRUE`,
		id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// CreateProduct inserts a product and its file paths in one transaction.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product, files *models.ProductFiles) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, product, `
		INSERT INTO products (title, composer, arranger, price)
		VALUES ($1, $2, $3, $4)
		RETURNING *`,
		product.Title, product.Composer, product.Arranger, product.Price)
	if err != nil {
		return err
	}

	files.ProductID = product.ID
	err = tx.GetContext(ctx, &files.ID, `
		INSERT INTO product_files (product_id, pdf_path, mp3_path)
		VALUES ($1, $2, $3)
		RETURNING id`,
		files.ProductID, files.PDFPath, files.MP3Path)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetProductFilePaths collects every stored path for a product before it is
// deleted. Returns (nil, nil) for an unknown product.
func (s *Store) GetProductFilePaths(ctx context.Context, id int64) (*models.ProductFilePaths, error) {
	var paths models.ProductFilePaths
	err := s.db.GetContext(ctx, &paths, `
		SELECT pf.pdf_path, pf.mp3_path, p.thumbnail_path
		FROM products p
		LEFT JOIN product_files pf ON pf.product_id = p.id
		WHERE p.id = $1`,
		id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &paths, nil
}

// DeleteProduct removes a product and its file rows. Returns the deleted
// product, or (nil, nil) when it did not exist.
func (s *Store) DeleteProduct(ctx context.Context, id int64) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_files WHERE product_id = $1`, id); err != nil {
		return nil, err
	}

	var product models.Product
	err = tx.GetContext(ctx, &product, `DELETE FROM products WHERE id = $1 RETURNING *`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &product, tx.Commit()
}
