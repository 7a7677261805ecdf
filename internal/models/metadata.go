package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"music-store/internal/apperrors"
)

// Metadata keys attached to the provider checkout session. They are the only
// link between the provider's session and the local domain, so they must
// round-trip exactly.
const (
	metadataUserIDKey     = "user_id"
	metadataProductIDsKey = "product_ids"
)

// SessionMetadata is the domain intent carried across the external payment
// round-trip: which user is buying which products. Duplicate product ids
// express quantities.
type SessionMetadata struct {
	UserID     int64
	ProductIDs []int64
}

// Encode serializes the metadata into the provider's string map form.
func (m SessionMetadata) Encode() (map[string]string, error) {
	if m.UserID <= 0 || len(m.ProductIDs) == 0 {
		return nil, fmt.Errorf("%w: user id and product ids are required", apperrors.ErrInvalidSession)
	}

	ids, err := json.Marshal(m.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product ids: %w", err)
	}

	return map[string]string{
		metadataUserIDKey:     strconv.FormatInt(m.UserID, 10),
		metadataProductIDsKey: string(ids),
	}, nil
}

// ParseSessionMetadata decodes provider session metadata. It fails if the
// user id is absent or not a positive integer, or if no valid product id
// survives filtering. Individual non-integer or non-positive ids are dropped,
// matching how the metadata was produced.
func ParseSessionMetadata(metadata map[string]string) (*SessionMetadata, error) {
	userID, err := strconv.ParseInt(metadata[metadataUserIDKey], 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: missing or malformed user id", apperrors.ErrInvalidSession)
	}

	productIDs := parseProductIDs(metadata[metadataProductIDsKey])
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("%w: no valid product ids", apperrors.ErrInvalidSession)
	}

	return &SessionMetadata{UserID: userID, ProductIDs: productIDs}, nil
}

// Quantities groups the ordered id list into per-product quantities.
func (m *SessionMetadata) Quantities() map[int64]int {
	quantities := make(map[int64]int, len(m.ProductIDs))
	for _, id := range m.ProductIDs {
		quantities[id]++
	}
	return quantities
}

func parseProductIDs(value string) []int64 {
	if value == "" {
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil
	}

	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			if n > 0 && n == math.Trunc(n) {
				ids = append(ids, int64(n))
			}
		case string:
			if id, err := strconv.ParseInt(n, 10, 64); err == nil && id > 0 {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
