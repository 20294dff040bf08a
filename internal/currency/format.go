package currency

import (
	"math"

	"github.com/dustin/go-humanize"
)

var symbols = map[string]string{
	USD: "$",
	NPR: "रू ",
}

// Format renders amount with grouping and two decimals, e.g. $1,234.50 or
// रू 1,234.50. Unknown codes are suffixed instead.
func Format(amount float64, code string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	digits := humanize.FormatFloat("#,###.##", math.Abs(Round2(amount)))

	sym, ok := symbols[code]
	if !ok {
		return sign + digits + " " + code
	}
	return sign + sym + digits
}
