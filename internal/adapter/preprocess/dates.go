package preprocess

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var (
	englishRelative = regexp.MustCompile(`(?i)\b(\d+|an?|one)\s+(minute|hour|day|week|month|year)s?\s+ago\b`)
	chineseRelative = regexp.MustCompile(`([0-9一二兩三四五六七八九十]+)\s*(分鐘|小時|天|週|周|星期|個月|个月|月|年)前`)

	absoluteLayouts = []string{
		time.RFC3339,
		"2006-01-02",
		"2006/01/02",
		"2006年1月2日",
		"January 2, 2006",
		"Jan 2, 2006",
	}

	chineseDigits = map[rune]int{
		'一': 1, '二': 2, '兩': 2, '三': 3, '四': 4,
		'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
	}
)

// ParseDate loosely interprets review date text relative to now.
// It never fails: text it cannot read yields ok == false.
func ParseDate(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "just now"), strings.Contains(lower, "today"), strings.Contains(text, "剛剛"), strings.Contains(text, "今天"):
		return now, true
	case strings.Contains(lower, "yesterday"), strings.Contains(text, "昨天"):
		return now.Add(-day), true
	}

	if m := englishRelative.FindStringSubmatch(lower); m != nil {
		n := 1
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v
		}
		return now.Add(-time.Duration(n) * unitDuration(m[2])), true
	}

	if m := chineseRelative.FindStringSubmatch(text); m != nil {
		n, err := chineseNumber(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return now.Add(-time.Duration(n) * unitDuration(m[2])), true
	}

	return time.Time{}, false
}

// IsOlderThan reports whether the review date text lies more than years before now.
// Unparseable text is never considered older.
func IsOlderThan(text string, years int, now time.Time) bool {
	if years <= 0 {
		return false
	}
	t, ok := ParseDate(text, now)
	if !ok {
		return false
	}
	return t.Before(now.Add(-time.Duration(years) * 365 * day))
}

func unitDuration(unit string) time.Duration {
	switch unit {
	case "minute", "分鐘":
		return time.Minute
	case "hour", "小時":
		return time.Hour
	case "day", "天":
		return day
	case "week", "週", "周", "星期":
		return 7 * day
	case "month", "個月", "个月", "月":
		return 30 * day
	case "year", "年":
		return 365 * day
	}
	return 0
}

func chineseNumber(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}

	runes := []rune(s)
	switch {
	case len(runes) == 1 && runes[0] == '十':
		return 10, nil
	case len(runes) == 1:
		if n, ok := chineseDigits[runes[0]]; ok {
			return n, nil
		}
	case len(runes) == 2 && runes[0] == '十':
		if n, ok := chineseDigits[runes[1]]; ok {
			return 10 + n, nil
		}
	case len(runes) == 2 && runes[1] == '十':
		if n, ok := chineseDigits[runes[0]]; ok {
			return n * 10, nil
		}
	}
	return 0, fmt.Errorf("unrecognized number %q", s)
}
