package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateUsesExchangeTZ(t *testing.T) {
	t.Parallel()

	// 2022-09-03 01:30 UTC is still 2022-09-02 in New York.
	utc := time.Date(2022, 9, 3, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, "2022-09-02", Date(utc))
}

func TestWeekBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date string
		want string
	}{
		{"first_of_month", "2022-09-01", "2022-09-w1"},
		{"seventh", "2022-09-07", "2022-09-w1"},
		{"eighth", "2022-09-08", "2022-09-w2"},
		{"mid_month", "2022-09-19", "2022-09-w3"},
		{"twenty_ninth", "2022-09-29", "2022-09-w5"},
		{"thirty_first", "2022-10-31", "2022-10-w5"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			day, err := ParseDate(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, WeekBucket(day))
		})
	}
}

func TestWeekBucketForDate(t *testing.T) {
	t.Parallel()

	bucket, err := WeekBucketForDate("2022-09-03")
	require.NoError(t, err)
	assert.Equal(t, "2022-09-w1", bucket)

	_, err = WeekBucketForDate("03-09-2022")
	assert.Error(t, err)
}

func TestValidBucket(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidBucket("2022-09-w1"))
	assert.True(t, ValidBucket("2023-12-w5"))
	assert.False(t, ValidBucket("2022-09-w6"))
	assert.False(t, ValidBucket("2022-09"))
	assert.False(t, ValidBucket("2022-09-W1"))
}

func TestInstructionIsClose(t *testing.T) {
	t.Parallel()

	assert.True(t, BuyToClose.IsClose())
	assert.True(t, SellToClose.IsClose())
	assert.False(t, BuyToOpen.IsClose())
	assert.False(t, Buy.IsClose())
}
