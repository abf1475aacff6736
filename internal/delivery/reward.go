package delivery

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinRewardSeconds     = 5
	MaxRewardSeconds     = 120
	DefaultRewardSeconds = 15
)

// SanitizeRewardSeconds floors value and clamps it into [MinRewardSeconds, MaxRewardSeconds].
// Values that cannot be read as a finite number fall back to DefaultRewardSeconds.
func SanitizeRewardSeconds(value any) int {
	d, ok := toDecimal(value)
	if !ok {
		d = decimal.NewFromInt(DefaultRewardSeconds)
	}
	n := d.Floor()
	switch {
	case n.LessThan(decimal.NewFromInt(MinRewardSeconds)):
		return MinRewardSeconds
	case n.GreaterThan(decimal.NewFromInt(MaxRewardSeconds)):
		return MaxRewardSeconds
	}
	return int(n.IntPart())
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case nil:
		return decimal.Decimal{}, false
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case decimal.Decimal:
		return v, true
	case *int:
		if v == nil {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromInt(int64(*v)), true
	case json.Number:
		return fromString(v.String())
	case string:
		return fromString(v)
	}
	return decimal.Decimal{}, false
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}

func fromString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
