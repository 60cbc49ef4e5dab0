package store

import (
	"cmp"
	"fmt"
	"strconv"
	"time"
)

// Field encodings shared by the delimited-text schemas.

const timeLayout = time.RFC3339Nano

func formatInt(n int64) string { return strconv.FormatInt(n, 10) }

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func formatBool(b bool) string { return strconv.FormatBool(b) }

func parseID(field, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid id %q", field, s)
	}
	return n, nil
}

func parseInt(field, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", field, s)
	}
	return n, nil
}

func parseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid timestamp %q", field, s)
	}
	return t.UTC(), nil
}

// parseBool accepts only the literals true and false.
func parseBool(field, s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s: invalid boolean %q", field, s)
	}
}

func requireText(field, s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%s: empty", field)
	}
	return s, nil
}

func compareInt64(a, b int64) int { return cmp.Compare(a, b) }
