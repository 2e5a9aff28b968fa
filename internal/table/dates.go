package table

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order by ParseDate. Day-first layouts follow the
// pt-BR convention used by the source spreadsheets.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"2 Jan 2006",
}

// excelEpoch is day zero of the 1900 date system as Excel counts it.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses s with the first matching layout.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SerialToTime converts an Excel serial date (1900 date system) to a time.
func SerialToTime(serial float64) (time.Time, error) {
	return excelize.ExcelDateToTime(serial, false)
}

// TimeToSerial converts t to an Excel serial date. Only dates after
// 1900-03-01 round-trip, which covers every date the pipeline produces.
func TimeToSerial(t time.Time) float64 {
	return float64(t.Sub(excelEpoch)) / float64(24*time.Hour)
}

// FormatDate renders t as a date, adding the clock only when it is set.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
