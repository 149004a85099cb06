package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	p := Pagination{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 50, p.Limit)

	p = Pagination{Page: 3, Limit: 9000}.Normalize()
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 250, p.Limit)
	assert.Equal(t, 500, p.Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(10, 0))
	assert.Equal(t, 1, TotalPages(50, 50))
	assert.Equal(t, 2, TotalPages(51, 50))
}

func TestCursorRoundTrip(t *testing.T) {
	encoded, err := EncodeCursor(Cursor{ID: "42", Timestamp: "2026-08-29T12:00:00Z"})
	require.NoError(t, err)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, "42", decoded.ID)
	assert.Equal(t, "2026-08-29T12:00:00Z", decoded.Timestamp)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64!!")
	assert.Error(t, err)
}
