package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Epoch is what missing or unparseable timestamps normalize to, so they sort oldest.
var Epoch = time.Unix(0, 0).UTC()

const timeLayout = time.RFC3339Nano

// millisThreshold separates epoch seconds from epoch milliseconds.
// 1e11 seconds is in the year 5138, so anything larger is milliseconds.
const millisThreshold = 1e11

var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"Mon Jan 2 2006 15:04:05 GMT-0700",
	"January 2, 2006 at 3:04:05 PM MST",
}

type asTimer interface {
	AsTime() time.Time
}

// NormalizeTimestamp coerces any timestamp representation found in stored
// records into a time.Time. It never fails; unknown input yields Epoch.
func NormalizeTimestamp(v any) time.Time {
	switch val := v.(type) {
	case nil:
		return Epoch
	case time.Time:
		return orEpoch(val)
	case *time.Time:
		if val == nil {
			return Epoch
		}
		return orEpoch(*val)
	case asTimer:
		return orEpoch(val.AsTime())
	case map[string]any:
		return fromSecondsMap(val)
	case string:
		return fromString(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return Epoch
		}
		return fromEpochNumber(f)
	case float64:
		return fromEpochNumber(val)
	case float32:
		return fromEpochNumber(float64(val))
	case int:
		return fromEpochNumber(float64(val))
	case int64:
		return fromEpochNumber(float64(val))
	case int32:
		return fromEpochNumber(float64(val))
	default:
		return Epoch
	}
}

func orEpoch(t time.Time) time.Time {
	if t.IsZero() {
		return Epoch
	}
	return t.UTC()
}

func fromSecondsMap(m map[string]any) time.Time {
	secs, ok := numberOf(m["seconds"])
	if !ok {
		secs, ok = numberOf(m["_seconds"])
	}
	if !ok {
		return Epoch
	}
	nanos, ok := numberOf(m["nanoseconds"])
	if !ok {
		nanos, _ = numberOf(m["_nanoseconds"])
	}
	return time.Unix(int64(secs), int64(nanos)).UTC()
}

func fromString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return Epoch
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpochNumber(f)
	}
	for _, layout := range stringLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return Epoch
}

func fromEpochNumber(f float64) time.Time {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return Epoch
	}
	if f >= millisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// FormatTimestamp renders a time the way the core writes timestamps back.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
