// Package billing turns two consecutive meter readings and a tariff into a bill.
package billing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m3rciful/utilbot/app/models"
	"github.com/m3rciful/utilbot/core/telegram/format"
)

// Currency is appended to every amount.
const Currency = "₴"

// NegativeConsumptionError means a zone's meter went backwards.
type NegativeConsumptionError struct {
	Zone string
	Prev float64
	Curr float64
}

func (e *NegativeConsumptionError) Error() string {
	return fmt.Sprintf("billing: negative consumption for zone %q (%s → %s)", e.Zone, Number(e.Prev), Number(e.Curr))
}

func (e *NegativeConsumptionError) Code() string { return "NEGATIVE_CONSUMPTION" }

// Line is the charge for one zone.
type Line struct {
	Zone        string
	Prev        float64
	Curr        float64
	Consumption float64
	Price       float64
	Cost        float64
}

// Statement is a computed bill.
type Statement struct {
	Year  int
	Month int
	Lines []Line
	Total float64
}

// PreviousMonth returns the month before year/month.
func PreviousMonth(year, month int) (int, int) {
	if month <= 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// Compute charges every zone of cur that has both a previous value and a
// price. Zones missing either are skipped.
func Compute(cur, prev models.Reading, tariff models.Tariff) (Statement, error) {
	st := Statement{Year: cur.Year, Month: cur.Month}
	for _, z := range cur.Zones {
		before, ok := prev.Zones.Get(z.Name)
		if !ok {
			continue
		}
		price, ok := tariff.Zones.Get(z.Name)
		if !ok {
			continue
		}
		used := z.Value - before
		if used < 0 {
			return Statement{}, &NegativeConsumptionError{Zone: z.Name, Prev: before, Curr: z.Value}
		}
		line := Line{Zone: z.Name, Prev: before, Curr: z.Value, Consumption: used, Price: price, Cost: used * price}
		st.Lines = append(st.Lines, line)
		st.Total += line.Cost
	}
	return st, nil
}

// Consumption sums the non-negative per-zone differences between cur and prev.
func Consumption(cur, prev models.Zones) float64 {
	total := 0.0
	for _, z := range cur {
		if before, ok := prev.Get(z.Name); ok && z.Value >= before {
			total += z.Value - before
		}
	}
	return total
}

// Markdown renders st for Telegram's legacy Markdown mode.
func (st Statement) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🧾 Bill for *%02d.%d*\n", st.Month, st.Year)
	b.WriteString("---\n")
	for _, l := range st.Lines {
		fmt.Fprintf(&b, "*Zone %s*:\n", format.MD(l.Zone))
		fmt.Fprintf(&b, "  - Readings: %s → %s\n", Number(l.Prev), Number(l.Curr))
		fmt.Fprintf(&b, "  - Consumption: %s\n", Number(l.Consumption))
		fmt.Fprintf(&b, "  - Price: %s\n", Money(l.Price))
		fmt.Fprintf(&b, "  - Cost: *%s*\n", Money(l.Cost))
	}
	b.WriteString("---\n")
	fmt.Fprintf(&b, "*TOTAL DUE: %s*", Money(st.Total))
	return b.String()
}

// Number formats v without trailing zeros.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Money formats v with two decimals and the currency sign.
func Money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " " + Currency
}

// ParseAmount reads a non-negative decimal typed by a user. A comma works as
// the decimal separator.
func ParseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
