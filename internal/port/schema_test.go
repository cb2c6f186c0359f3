package port

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/marketplace/internal/core/domain"
)

func TestNormalize_CoercesNamedTypes(t *testing.T) {
	fields, err := BidRequestSchema.Normalize(Fields{
		"status":      domain.BidRequestStatusOpen,
		"guest_count": 12,
		"budget":      500,
	})
	require.NoError(t, err)

	assert.Equal(t, "OPEN", fields["status"])
	assert.Equal(t, int64(12), fields["guest_count"])
	assert.Equal(t, float64(500), fields["budget"])
}

func TestNormalize_RejectsUnknownField(t *testing.T) {
	_, err := BidRequestSchema.Normalize(Fields{"notes": "free text"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = BidRequestSchema.Normalize(Fields{FieldID: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNormalize_RejectsWrongKind(t *testing.T) {
	_, err := PassSchema.Normalize(Fields{"capacity": "ten"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFilterMatch(t *testing.T) {
	filter, err := BidSchema.NormalizeFilter(Where("request_id", "r1").And("provider_id", "p1"))
	require.NoError(t, err)

	assert.True(t, filter.Match(Fields{"request_id": "r1", "provider_id": "p1"}))
	assert.False(t, filter.Match(Fields{"request_id": "r1", "provider_id": "p2"}))
	assert.True(t, Filter{}.Match(Fields{"request_id": "anything"}))
}

func TestFilterAnd_DoesNotAlias(t *testing.T) {
	base := Where("status", "OPEN")
	a := base.And("customer_id", "a")
	b := base.And("customer_id", "b")

	assert.Len(t, base, 1)
	assert.Equal(t, "a", a[1].Value)
	assert.Equal(t, "b", b[1].Value)
}

func TestFormatTime_SortsAsString(t *testing.T) {
	earlier := time.Date(2025, 6, 1, 9, 0, 0, 5, time.UTC)
	later := earlier.Add(time.Second)

	assert.Less(t, FormatTime(earlier), FormatTime(later))
	assert.Equal(t, len(FormatTime(earlier)), len(FormatTime(later.Add(500*time.Millisecond))))
	assert.True(t, earlier.Equal(ParseTime(FormatTime(earlier))))
	assert.Equal(t, "", FormatTime(time.Time{}))
}
