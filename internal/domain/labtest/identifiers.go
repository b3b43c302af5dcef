package labtest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	requestIDPattern = regexp.MustCompile(`^ATL/(\d{2})/(\d{2})/T_(\d+)$`)
	atlIDPattern     = regexp.MustCompile(`^ATL/(\d{2})/(\d{2})/(\d+)$`)
	datePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// FormatError reports a value that does not match its identifier pattern.
type FormatError struct {
	Kind  string
	Value string
}

func (e *FormatError) Error() string {
	switch e.Kind {
	case "date":
		return fmt.Sprintf("%q is not a valid date format, use YYYY-MM-DD", e.Value)
	default:
		return fmt.Sprintf("%q is not a valid %s format", e.Value, e.Kind)
	}
}

func IsRequestID(s string) bool { return requestIDPattern.MatchString(s) }
func IsAtlID(s string) bool     { return atlIDPattern.MatchString(s) }
func IsDate(s string) bool      { return datePattern.MatchString(s) }

func ValidateRequestID(s string) error {
	if !IsRequestID(s) {
		return &FormatError{Kind: "request id", Value: s}
	}
	return nil
}

func ValidateAtlID(s string) error {
	if !IsAtlID(s) {
		return &FormatError{Kind: "ATL id", Value: s}
	}
	return nil
}

func ValidateDate(s string) error {
	if !IsDate(s) {
		return &FormatError{Kind: "date", Value: s}
	}
	return nil
}

// FormatAtlID builds a material-level id, ATL/YY/MM/<seq>.
func FormatAtlID(yy, mm string, seq int) string {
	return fmt.Sprintf("ATL/%s/%s/%d", yy, mm, seq)
}

// FormatRequestID builds a request-level id, ATL/YY/MM/T_<seq>.
func FormatRequestID(yy, mm string, seq int) string {
	return fmt.Sprintf("ATL/%s/%s/T_%d", yy, mm, seq)
}

// RORNumber derives ROR/YY/MM/<seq> from a request id, reusing its count.
func RORNumber(requestID string) (string, error) {
	m := requestIDPattern.FindStringSubmatch(requestID)
	if m == nil {
		return "", &FormatError{Kind: "request id", Value: requestID}
	}
	return fmt.Sprintf("ROR/%s/%s/%s", m[1], m[2], m[3]), nil
}

// InvoiceNumber derives the proforma number ATL/YY/MM/<seq> from a request id.
func InvoiceNumber(requestID string) (string, error) {
	m := requestIDPattern.FindStringSubmatch(requestID)
	if m == nil {
		return "", &FormatError{Kind: "request id", Value: requestID}
	}
	return fmt.Sprintf("ATL/%s/%s/%s", m[1], m[2], m[3]), nil
}

// NextAtlSequence returns one past the highest ATL/yy/mm/<n> suffix in ids,
// or 1 when none match. Malformed ids are skipped.
func NextAtlSequence(ids []string, yy, mm string) int {
	return nextSequence(atlIDPattern, ids, yy, mm)
}

// NextRequestSequence is NextAtlSequence for ATL/yy/mm/T_<n> request ids.
func NextRequestSequence(ids []string, yy, mm string) int {
	return nextSequence(requestIDPattern, ids, yy, mm)
}

func nextSequence(re *regexp.Regexp, ids []string, yy, mm string) int {
	yy, mm = strings.TrimSpace(yy), strings.TrimSpace(mm)
	max := 0
	for _, id := range ids {
		m := re.FindStringSubmatch(strings.TrimSpace(id))
		if m == nil || m[1] != yy || m[2] != mm {
			continue
		}
		n, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

// YearMonth returns the two-digit year and month components used in ids.
func YearMonth(date string) (yy, mm string, err error) {
	if err := ValidateDate(date); err != nil {
		return "", "", err
	}
	return date[2:4], date[5:7], nil
}
