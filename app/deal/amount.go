package deal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparseableAmount marks currency strings that could not be
// normalized into a numeric value.
var ErrUnparseableAmount = errors.New("unparseable amount")

var amountRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(m|b|million|billion)\b`)

var undisclosedForms = map[string]bool{
	"":                   true,
	"n/a":                true,
	"not specified":      true,
	"undisclosed":        true,
	"undisclosed amount": true,
}

// ParseAmount normalizes a funding amount string into millions of USD.
// Accepted forms: "$10M", "10m", "€2.5 billion", "5 million", "1.2b",
// and plain numbers with optional currency symbols and thousands
// separators. Plain values of 100,000 or more are read as raw dollars
// and converted; smaller plain values are taken as already in millions.
// Undisclosed forms parse to zero without error.
func ParseAmount(s string) (float64, error) {
	text := strings.ToLower(strings.TrimSpace(s))
	if undisclosedForms[text] {
		return 0, nil
	}

	if strings.HasPrefix(text, "-") || strings.Contains(text, "-") {
		return 0, fmt.Errorf("%w: negative value %q", ErrUnparseableAmount, s)
	}

	if m := amountRe.FindStringSubmatch(text); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrUnparseableAmount, s)
		}
		if m[2] == "b" || m[2] == "billion" {
			return value * 1000, nil
		}
		return value, nil
	}

	plain := strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(text)
	value, err := strconv.ParseFloat(plain, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableAmount, s)
	}
	if value >= 100000 {
		return value / 1e6, nil
	}
	return value, nil
}

// FormatAmount renders a millions-USD value for reports.
func FormatAmount(millions float64) string {
	if millions <= 0 {
		return "undisclosed"
	}
	if millions >= 1000 {
		return fmt.Sprintf("$%.1fB", millions/1000)
	}
	return fmt.Sprintf("$%.1fM", millions)
}
