package services

import "strings"

var (
	wordOnes  = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine"}
	wordTens  = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
	wordTeens = []string{"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
)

// RupeesInWords spells n in the Indian numbering system (crore, lakh,
// thousand), e.g. 123456 -> "One Lakh Twenty Three Thousand Four Hundred and
// Fifty Six Rupees Only". Negative amounts are spelled by magnitude.
func RupeesInWords(n int64) string {
	if n < 0 {
		n = -n
	}
	if n == 0 {
		return "Zero Rupees Only"
	}
	var b strings.Builder
	groups := []struct {
		value int64
		label string
	}{
		{n / 10000000, "Crore "},
		{(n % 10000000) / 100000, "Lakh "},
		{(n % 100000) / 1000, "Thousand "},
	}
	for _, g := range groups {
		if g.value > 0 {
			// Counts of a hundred crore or more still read as a plain number.
			writeBelowThousand(&b, g.value)
			b.WriteString(g.label)
		}
	}
	writeBelowThousand(&b, n%1000)
	return strings.TrimSpace(b.String()) + " Rupees Only"
}

func writeBelowThousand(b *strings.Builder, n int64) {
	if n >= 1000 {
		writeBelowThousand(b, n/1000)
		b.WriteString("Thousand ")
		n %= 1000
	}
	if n == 0 {
		return
	}
	if n >= 100 {
		b.WriteString(wordOnes[n/100] + " Hundred ")
		n %= 100
		if n > 0 {
			b.WriteString("and ")
		}
	}
	switch {
	case n >= 20:
		b.WriteString(wordTens[n/10] + " ")
		n %= 10
	case n >= 10:
		b.WriteString(wordTeens[n-10] + " ")
		return
	}
	if n > 0 {
		b.WriteString(wordOnes[n] + " ")
	}
}
