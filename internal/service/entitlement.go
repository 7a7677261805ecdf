package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"music-store/internal/apperrors"
	"music-store/internal/models"
	"music-store/internal/util"

	"go.uber.org/zap"
)

// EntitlementStore is the slice of the store the entitlement gate needs.
type EntitlementStore interface {
	ListPurchases(ctx context.Context, userID int64) ([]models.Purchase, error)
	GetEntitledDownload(ctx context.Context, userID, productID int64) (*models.EntitledDownload, error)
}

// EntitlementService answers "has this user paid for this product" and
// resolves downloads to concrete files. Entitlement is derived from the
// orders the reconciler wrote; it is never stored separately, so it cannot
// go stale.
type EntitlementService struct {
	store     EntitlementStore
	assetRoot string
	logger    *zap.Logger
}

// NewEntitlementService creates a new entitlement service. assetRoot is
// canonicalized once; every resolved download must stay inside it.
func NewEntitlementService(store EntitlementStore, assetRoot string) (*EntitlementService, error) {
	root, err := filepath.Abs(assetRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve asset root: %w", err)
	}
	return &EntitlementService{
		store:     store,
		assetRoot: root,
		logger:    util.GetLogger(),
	}, nil
}

// Download is a resolved, path-validated file ready to serve.
type Download struct {
	Path     string
	Filename string
	Format   string
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9-_]+`)

// ListPurchases retrieves the user's paid purchases, newest first.
func (s *EntitlementService) ListPurchases(ctx context.Context, userID int64) ([]models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "EntitlementService.ListPurchases")
	defer span.End()

	purchases, err := s.store.ListPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	return purchases, nil
}

// ResolveDownload confirms the entitlement and resolves the stored path for
// the requested format. Missing entitlement and missing product are the same
// NotFound. A stored path escaping the asset root is Forbidden — the store
// and disk are not trusted to agree.
func (s *EntitlementService) ResolveDownload(ctx context.Context, userID, productID int64, format string) (*Download, error) {
	ctx, span := util.StartSpan(ctx, "EntitlementService.ResolveDownload")
	defer span.End()

	if productID <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", apperrors.ErrInvalidInput)
	}
	if strings.ToLower(format) != "mp3" {
		format = "pdf"
	} else {
		format = "mp3"
	}

	entitled, err := s.store.GetEntitledDownload(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check entitlement: %w", err)
	}
	if entitled == nil {
		return nil, fmt.Errorf("%w: purchased product not found", apperrors.ErrNotFound)
	}

	storedPath := entitled.PDFPath
	if format == "mp3" {
		storedPath = entitled.MP3Path
	}
	if storedPath == nil || *storedPath == "" {
		return nil, fmt.Errorf("%w: no %s file available for this purchase",
			apperrors.ErrNotFound, strings.ToUpper(format))
	}

	resolved, err := filepath.Abs(*storedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file path: %w", err)
	}
	if resolved != s.assetRoot && !strings.HasPrefix(resolved, s.assetRoot+string(os.PathSeparator)) {
		s.logger.Warn("Stored download path escapes asset root",
			zap.Int64("product_id", productID),
			zap.String("path", *storedPath))
		return nil, fmt.Errorf("%w: invalid file path", apperrors.ErrForbidden)
	}

	if _, err := os.Stat(resolved); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file not found", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &Download{
		Path:     resolved,
		Filename: downloadFilename(entitled.Title, productID, format),
		Format:   format,
	}, nil
}

func downloadFilename(title string, productID int64, format string) string {
	safe := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(title), "_")
	if safe == "" {
		safe = fmt.Sprintf("music-%d", productID)
	}
	return safe + "." + format
}
