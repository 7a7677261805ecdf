package models

import (
	"testing"

	"music-store/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionMetadataRoundTrip(t *testing.T) {
	encoded, err := SessionMetadata{UserID: 9, ProductIDs: []int64{5, 5, 7}}.Encode()
	require.NoError(t, err)
	assert.Equal(t, "9", encoded["user_id"])
	assert.Equal(t, "[5,5,7]", encoded["product_ids"])

	decoded, err := ParseSessionMetadata(encoded)
	require.NoError(t, err)
	assert.Equal(t, int64(9), decoded.UserID)
	assert.Equal(t, []int64{5, 5, 7}, decoded.ProductIDs)
	assert.Equal(t, map[int64]int{5: 2, 7: 1}, decoded.Quantities())
}

func TestEncodeRejectsEmpty(t *testing.T) {
	_, err := SessionMetadata{UserID: 0, ProductIDs: []int64{1}}.Encode()
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	_, err = SessionMetadata{UserID: 1}.Encode()
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}

func TestParseSessionMetadataUserID(t *testing.T) {
	cases := map[string]map[string]string{
		"missing":     {"product_ids": "[1]"},
		"empty":       {"user_id": "", "product_ids": "[1]"},
		"non-numeric": {"user_id": "abc", "product_ids": "[1]"},
		"zero":        {"user_id": "0", "product_ids": "[1]"},
		"negative":    {"user_id": "-3", "product_ids": "[1]"},
	}

	for name, metadata := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSessionMetadata(metadata)
			assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
		})
	}
}

func TestParseSessionMetadataProductIDs(t *testing.T) {
	// string-typed ids survive, non-positive and fractional entries are dropped
	meta, err := ParseSessionMetadata(map[string]string{
		"user_id":     "4",
		"product_ids": `[3, "8", 0, -2, 1.5]`,
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 8}, meta.ProductIDs)

	// nothing valid left after filtering
	_, err = ParseSessionMetadata(map[string]string{
		"user_id":     "4",
		"product_ids": `[0, -2]`,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	// malformed JSON
	_, err = ParseSessionMetadata(map[string]string{
		"user_id":     "4",
		"product_ids": `not-json`,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)

	// absent entirely
	_, err = ParseSessionMetadata(map[string]string{"user_id": "4"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSession)
}
