// Package normalize converts extracted page text into typed values.
//
// Numbers follow the European convention: `.` groups thousands and `,`
// marks the decimal. Inputs like "1.234,56 €" parse to 1234.56. A plain
// US-style "1.234" is read as a grouped 1234, not 1.234; that tradeoff
// is fixed policy.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	currencyReplacer = strings.NewReplacer("€", "", "$", "", "£", "", "¥", "")
	numberRun        = regexp.MustCompile(`[0-9.]+`)
)

// Number parses a human-formatted numeric string. It strips currency
// symbols and whitespace, removes grouping separators, converts a
// decimal comma to a point, and parses the first numeric run. The
// second return is false when the input is empty or holds no parseable
// number.
func Number(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, false
	}
	s = currencyReplacer.Replace(s)
	s = stripSpace(s)
	s = stripGrouping(s)
	s = strings.ReplaceAll(s, ",", ".")

	run := numberRun.FindString(s)
	if run == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(run, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Text trims leading and trailing whitespace. Internal whitespace is
// preserved; an empty or all-whitespace input yields "".
func Text(text string) string {
	return strings.TrimSpace(text)
}

func stripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripGrouping removes a `.` or `,` that sits directly before a group
// of three or more digits. Only such separators group thousands; a
// separator before one or two digits is a decimal mark and stays.
func stripGrouping(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range rs {
		if (r == '.' || r == ',') && digitsAfter(rs, i+1) >= 3 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func digitsAfter(rs []rune, from int) int {
	n := 0
	for i := from; i < len(rs) && unicode.IsDigit(rs[i]); i++ {
		n++
		if n == 3 {
			break
		}
	}
	return n
}
