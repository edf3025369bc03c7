package message

import (
	"strings"
	"time"
)

// JST is the fixed UTC+9 zone every date rule is evaluated in.
var JST = time.FixedZone("JST", 9*60*60)

// RecurringMarker in a date cell makes the row apply on every day.
const RecurringMarker = "毎週"

// DateKeys are the tokens a sheet date cell is matched against.
type DateKeys struct {
	Full     string // 2025年01月02日
	MonthDay string // 01月02日
	Weekday  string // Mon..Sun
}

// KeysFor derives the match keys for t in JST.
func KeysFor(t time.Time) DateKeys {
	t = t.In(JST)
	return DateKeys{
		Full:     t.Format("2006年01月02日"),
		MonthDay: t.Format("01月02日"),
		Weekday:  t.Format("Mon"),
	}
}

// Matches reports whether a date cell applies for these keys.
func (k DateKeys) Matches(dateCell string) bool {
	return strings.Contains(dateCell, k.Full) ||
		strings.Contains(dateCell, k.MonthDay) ||
		strings.Contains(dateCell, k.Weekday) ||
		strings.Contains(dateCell, RecurringMarker)
}

// SheetRow is one data row of the row source.
type SheetRow struct {
	DateCell    string
	MessageCell string
}

// ParseRows drops the header row and any row with fewer than two cells.
func ParseRows(raw [][]string) []SheetRow {
	if len(raw) <= 1 {
		return nil
	}
	out := make([]SheetRow, 0, len(raw)-1)
	for _, r := range raw[1:] {
		if len(r) < 2 {
			continue
		}
		out = append(out, SheetRow{DateCell: r[0], MessageCell: r[1]})
	}
	return out
}

// MatchRows returns the message cell of the first applicable row.
// Rows are scanned in source order; blank message cells never match.
func MatchRows(raw [][]string, k DateKeys) (string, bool) {
	for _, row := range ParseRows(raw) {
		if !k.Matches(row.DateCell) {
			continue
		}
		if strings.TrimSpace(row.MessageCell) == "" {
			continue
		}
		return row.MessageCell, true
	}
	return "", false
}

// RotationIndex is (dayOfYear-1) mod n with dayOfYear taken in JST.
// It returns -1 when n <= 0.
func RotationIndex(t time.Time, n int) int {
	if n <= 0 {
		return -1
	}
	return (t.In(JST).YearDay() - 1) % n
}
