package view

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable is shown for an undefined percentage.
const NotAvailable = "n/a"

var printer = message.NewPrinter(language.English)

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatPercentOrNA renders a nullable percentage.
func FormatPercentOrNA(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return FormatPercent(*v)
}

// cell helpers render table values verbatim for display and export

func intCell(n int64) string {
	return strconv.FormatInt(n, 10)
}

func floatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func nullableCell(v *float64) string {
	if v == nil {
		return ""
	}
	return floatCell(*v)
}

func boolCell(b bool) string {
	return strconv.FormatBool(b)
}

func dateCell(t time.Time) string {
	return t.Format("2006-01-02")
}
