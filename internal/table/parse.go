package table

import (
	"strconv"
	"strings"
	"time"
)

type timeLayout struct {
	layout   string
	dateOnly bool
}

var timeLayouts = []timeLayout{
	{time.RFC3339Nano, false},
	{time.RFC3339, false},
	{"2006-01-02", true},
	{"2006/01/02", true},
	{"01/02/2006", true},
	{"1/2/2006", true},
	{"02.01.2006", true},
	{"2006-01-02 15:04", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04:05.999999999", false},
	{"2006-01-02 15:04:05Z07:00", false},
	{"2006-01-02 15:04:05.999999999Z07:00", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006/01/02 15:04:05", false},
	{"1/2/2006 15:04", false},
	{"1/2/2006 15:04:05", false},
	{"Jan 2, 2006", true},
	{"January 2, 2006", true},
	{"2 Jan 2006", true},
	{"02-Jan-2006", true},
	{"20060102", true},
}

// ParseTime coerces a text cell to a time. dateOnly reports whether the matched
// layout carries no time-of-day component. Values without a zone are read as UTC.
func ParseTime(s string) (t time.Time, dateOnly bool, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	for _, l := range timeLayouts {
		if l.layout == "20060102" && len(s) != 8 {
			continue
		}
		if parsed, err := time.Parse(l.layout, s); err == nil {
			return parsed, l.dateOnly, true
		}
	}
	return time.Time{}, false, false
}

// ParseInteger parses a plain base-10 integer with an optional sign.
func ParseInteger(s string) (int64, bool) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return i, err == nil
}

// hasLeadingZero reports whether s is an integer literal like "007" whose
// zeros would be lost by numeric typing.
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(strings.TrimSpace(s), "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

// ParseNumber parses a numeric text cell. dec selects the decimal separator;
// 0 auto-detects from the last ',' or '.' the same way spreadsheet exports are usually written.
func ParseNumber(s string, dec rune) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "\u00A0", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return 0, false
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "nan") || strings.Contains(lower, "inf") {
		return 0, false
	}
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec = ','
		case cpos >= 0 && dpos < 0 && strings.Count(raw, ",") == 1 && len(raw)-cpos-1 != 3:
			// "12,5" is a decimal; "1,000" is a thousands group
			dec = ','
		default:
			dec = '.'
		}
	}
	thou := ','
	if dec == ',' {
		thou = '.'
	}
	raw = strings.ReplaceAll(raw, string(thou), "")
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
