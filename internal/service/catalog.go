package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"music-store/internal/apperrors"
	"music-store/internal/models"
	"music-store/internal/util"

	"go.uber.org/zap"
)

const (
	// legacy front-page behavior when no page size is given
	latestProductCount = 3

	cacheKeyLatest   = "catalog:latest"
	productCacheKeyF = "catalog:product:%d"
	catalogCacheTTL  = time.Minute
)

// CatalogStore is the slice of the store the catalog service needs.
type CatalogStore interface {
	GetCatalog(ctx context.Context) ([]models.CatalogEntry, error)
	GetLatestActiveProducts(ctx context.Context, limit int) ([]models.Product, error)
	GetActiveProducts(ctx context.Context, limit, offset int) ([]models.Product, error)
	CountActiveProducts(ctx context.Context) (int, error)
	GetActiveProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product, files *models.ProductFiles) error
	GetProductFilePaths(ctx context.Context, id int64) (*models.ProductFilePaths, error)
	DeleteProduct(ctx context.Context, id int64) (*models.Product, error)
}

// CatalogCache is the cache-aside surface for catalog reads. A nil cache is
// valid; reads then always hit the database.
type CatalogCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CatalogService serves product browse/read traffic and admin mutations.
type CatalogService struct {
	store  CatalogStore
	cache  CatalogCache
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, cache CatalogCache) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// CreateProductRequest carries the admin upload form plus the stored file
// paths the API layer already wrote to disk.
type CreateProductRequest struct {
	Title    string
	Composer string
	Arranger *string
	Price    float64
	PDFPath  string
	MP3Path  *string
}

// Catalog lists every product with its file paths, regardless of status.
func (s *CatalogService) Catalog(ctx context.Context) ([]models.CatalogEntry, error) {
	entries, err := s.store.GetCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	return entries, nil
}

// Latest returns the newest active products for the front page.
func (s *CatalogService) Latest(ctx context.Context) ([]models.Product, error) {
	var cached []models.Product
	if s.cacheGet(ctx, cacheKeyLatest, &cached) {
		return cached, nil
	}

	products, err := s.store.GetLatestActiveProducts(ctx, latestProductCount)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	s.cacheSet(ctx, cacheKeyLatest, products)
	return products, nil
}

// Page returns one page of active products plus the total count.
func (s *CatalogService) Page(ctx context.Context, page, pageSize int) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page size must be positive", apperrors.ErrInvalidInput)
	}

	total, err := s.store.CountActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	items, err := s.store.GetActiveProducts(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if items == nil {
		items = []models.Product{}
	}

	return &models.ProductPage{Items: items, Total: total}, nil
}

// ProductByID returns one active product.
func (s *CatalogService) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	key := fmt.Sprintf(productCacheKeyF, id)

	var cached models.Product
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := s.store.GetActiveProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: music piece not found", apperrors.ErrNotFound)
	}

	s.cacheSet(ctx, key, product)
	return product, nil
}

// CreateProduct inserts a catalog item whose files were already stored under
// the asset root.
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if req.Title == "" || req.Composer == "" || req.PDFPath == "" {
		return nil, fmt.Errorf("%w: title, composer, and PDF file are required", apperrors.ErrInvalidInput)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", apperrors.ErrInvalidInput)
	}

	product := &models.Product{
		Title:    req.Title,
		Composer: req.Composer,
		Arranger: req.Arranger,
		Price:    req.Price,
	}
	pdfPath := req.PDFPath
	files := &models.ProductFiles{PDFPath: &pdfPath, MP3Path: req.MP3Path}

	if err := s.store.CreateProduct(ctx, product, files); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidate(ctx, cacheKeyLatest)
	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("title", product.Title))
	return product, nil
}

// DeleteProduct removes a catalog item, its file rows and its on-disk files.
// Files already missing from disk are ignored.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	paths, err := s.store.GetProductFilePaths(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product files: %w", err)
	}
	if paths == nil {
		return nil, fmt.Errorf("%w: music piece not found", apperrors.ErrNotFound)
	}

	for _, p := range []*string{paths.PDFPath, paths.MP3Path, paths.ThumbnailPath} {
		if p == nil || *p == "" {
			continue
		}
		if err := os.Remove(*p); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove file %s: %w", *p, err)
		}
	}

	product, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("%w: music piece not found", apperrors.ErrNotFound)
	}

	s.invalidate(ctx, cacheKeyLatest, fmt.Sprintf(productCacheKeyF, id))
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return product, nil
}

func (s *CatalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to DB",
			zap.String("key", key),
			zap.Error(err))
		return false
	}
	return hit
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, catalogCacheTTL); err != nil {
		s.logger.Warn("Cache write failed",
			zap.String("key", key),
			zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Cache invalidation failed", zap.Error(err))
	}
}
