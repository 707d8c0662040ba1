package speech

import (
	"regexp"
	"strconv"
	"strings"
)

var numeralRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

var digitWords = [...]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

var (
	smallWords = [...]string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
	}
	tensWords = [...]string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	scales    = [...]string{"", "thousand", "million", "billion"}
)

// NumbersToWords replaces every numeric literal with its spoken form.
func NumbersToWords(text string) string {
	return numeralRe.ReplaceAllStringFunc(text, SpeakNumber)
}

// SpeakNumber renders one numeral. ID-like values are read digit by digit.
func SpeakNumber(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if isBigNumber(intPart, fracPart) {
		return speakDigits(intPart, fracPart, hasFrac)
	}
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return speakDigits(intPart, fracPart, hasFrac)
	}
	out := cardinal(n)
	if hasFrac {
		out += " point " + digitsInOrder(fracPart)
	}
	return out
}

func isBigNumber(intPart, fracPart string) bool {
	return (len(intPart) > 1 && intPart[0] == '0') || len(fracPart) > 4 || len(intPart) > 9
}

func speakDigits(intPart, fracPart string, hasFrac bool) string {
	groups := make([]string, 0, len(intPart)/3+1)
	for i := 0; i < len(intPart); i += 3 {
		end := i + 3
		if end > len(intPart) {
			end = len(intPart)
		}
		groups = append(groups, digitsInOrder(intPart[i:end]))
	}
	out := strings.Join(groups, ", ")
	if hasFrac {
		out += " point " + digitsInOrder(fracPart)
	}
	return out
}

func digitsInOrder(s string) string {
	words := make([]string, 0, len(s))
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		words = append(words, digitWords[r-'0'])
	}
	return strings.Join(words, " ")
}

// cardinal spells n in British-style English ("one hundred and five").
func cardinal(n int64) string {
	if n == 0 {
		return "zero"
	}
	var groups []int64
	for n > 0 {
		groups = append(groups, n%1000)
		n /= 1000
	}
	var b strings.Builder
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			continue
		}
		switch {
		case b.Len() == 0:
		case i == 0 && g < 100:
			b.WriteString(" and ")
		default:
			b.WriteString(", ")
		}
		b.WriteString(underThousand(g))
		if i < len(scales) && scales[i] != "" {
			b.WriteString(" " + scales[i])
		}
	}
	return b.String()
}

func underThousand(n int64) string {
	hundreds, rest := n/100, n%100
	switch {
	case hundreds > 0 && rest > 0:
		return smallWords[hundreds] + " hundred and " + underHundred(rest)
	case hundreds > 0:
		return smallWords[hundreds] + " hundred"
	default:
		return underHundred(rest)
	}
}

func underHundred(n int64) string {
	if n < 20 {
		return smallWords[n]
	}
	tens, ones := n/10, n%10
	if ones == 0 {
		return tensWords[tens]
	}
	return tensWords[tens] + "-" + smallWords[ones]
}
