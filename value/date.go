package value

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseDate implements std.parse_date (§4.4): historical format tokens,
// relative natural-language phrases in English/Chinese/Japanese/Korean, and
// a fallback to native ISO/RFC parsing. Returns seconds since epoch.
func ParseDate(input, format, locale, timezone string, now time.Time) (int64, error) {
	loc := resolveTimezone(timezone)

	if t, ok := parseRelative(input, now); ok {
		return t.Unix(), nil
	}

	if format != "" {
		if t, err := time.ParseInLocation(goFormat(format), input, loc); err == nil {
			return t.Unix(), nil
		}
	}

	for _, layout := range []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC1123,
		time.RFC1123Z,
	} {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t.Unix(), nil
		}
	}

	t, err := time.ParseInLocation(time.RFC3339, input, loc)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

func resolveTimezone(tz string) *time.Location {
	switch tz {
	case "", "current":
		return time.Local
	case "UTC":
		return time.UTC
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc
	}
	return time.Local
}

// goFormat translates the historical token vocabulary (year/month/day/
// hour/minute/second/am-or-pm/timezone-ish tokens) into a Go reference
// layout. Unrecognised runs pass through unchanged, which covers callers
// that already hand a Go-style or strftime-adjacent layout.
func goFormat(format string) string {
	replacer := strings.NewReplacer(
		"yyyy", "2006", "yy", "06",
		"MMMM", "January", "MMM", "Jan", "MM", "01", "M", "1",
		"dd", "02", "d", "2",
		"HH", "15", "H", "15",
		"hh", "03", "h", "3",
		"mm", "04", "m", "4",
		"ss", "05", "s", "5",
		"a", "PM",
		"ZZZZZ", "Z07:00", "ZZ", "-0700", "Z", "Z0700",
	)
	return replacer.Replace(format)
}

var relativePattern = regexp.MustCompile(`^\s*(\d+)\s*(seconds?|minutes?|hours?|days?|weeks?|months?|years?|秒|分钟?|小时|天|周|月|年|時間|分|日|週間|ヶ月|초|분|시간|일|주|개월)\s*(ago|前|전)?\s*$`)

// parseRelative handles phrases like "3 hours ago", "3小时前", "3時間前",
// "3시간 전", plus the fixed idioms "yesterday" and "just now".
func parseRelative(input string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(input)
	switch strings.ToLower(s) {
	case "just now", "たった今", "방금", "刚刚":
		return now, true
	case "yesterday", "昨日", "어제", "昨天":
		return now.AddDate(0, 0, -1), true
	}

	m := relativePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	unit := m[2]
	switch {
	case strings.HasPrefix(unit, "second"), unit == "秒", unit == "초":
		return now.Add(-time.Duration(n) * time.Second), true
	case strings.HasPrefix(unit, "minute"), unit == "分钟" || unit == "分" || unit == "분":
		return now.Add(-time.Duration(n) * time.Minute), true
	case strings.HasPrefix(unit, "hour"), unit == "小时" || unit == "時間" || unit == "시간":
		return now.Add(-time.Duration(n) * time.Hour), true
	case strings.HasPrefix(unit, "day"), unit == "天" || unit == "日" || unit == "일":
		return now.AddDate(0, 0, -n), true
	case strings.HasPrefix(unit, "week"), unit == "周" || unit == "週間" || unit == "주":
		return now.AddDate(0, 0, -7*n), true
	case strings.HasPrefix(unit, "month"), unit == "月" || unit == "ヶ月" || unit == "개월":
		return now.AddDate(0, -n, 0), true
	case strings.HasPrefix(unit, "year"), unit == "年":
		return now.AddDate(-n, 0, 0), true
	}
	return time.Time{}, false
}
