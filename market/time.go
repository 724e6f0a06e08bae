package market

import (
	"fmt"
	"regexp"
	"time"
)

// All calendar math runs on the exchange clock. Dates, week buckets and the
// daily close-out cutoff are all America/New_York regardless of server TZ.
var exchangeTZ *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("load America/New_York: " + err.Error())
	}
	exchangeTZ = loc
}

// ExchangeTZ returns the exchange-local time zone.
func ExchangeTZ() *time.Location {
	return exchangeTZ
}

const dateLayout = "2006-01-02"

// Date formats t as a YYYY-MM-DD exchange-local calendar date.
func Date(t time.Time) string {
	return t.In(exchangeTZ).Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD string into midnight exchange-local time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, exchangeTZ)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// WeekBucket returns the storage bucket key for t, e.g. "2022-09-w1" for any
// date on the 1st-7th of September 2022. The week index is
// ceil(dayOfMonth/7), so a month spans buckets w1..w5.
func WeekBucket(t time.Time) string {
	t = t.In(exchangeTZ)
	week := (t.Day() + 6) / 7
	return fmt.Sprintf("%04d-%02d-w%d", t.Year(), int(t.Month()), week)
}

// WeekBucketForDate returns the bucket key holding records for a
// YYYY-MM-DD date.
func WeekBucketForDate(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return WeekBucket(t), nil
}

var bucketRe = regexp.MustCompile(`^\d{4}-\d{2}-w[1-5]$`)

// ValidBucket reports whether s looks like a YYYY-MM-w{n} bucket key.
func ValidBucket(s string) bool {
	return bucketRe.MatchString(s)
}
