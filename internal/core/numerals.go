// Package core provides numeral normalization and amount parsing.
//
// This file maps ASCII digits to and from their Persian (۰-۹) and
// Arabic-Indic (٠-٩) presentation forms and turns user-typed amount text
// into a float. Every function here is pure and total: runes outside the
// recognized glyph ranges pass through unchanged.
package core

import (
	"strconv"
	"strings"
)

const (
	persianZero     = '۰' // ۰
	arabicIndicZero = '٠' // ٠

	persianThousandsSeparator = '٬' // ٬
	persianDecimalSeparator   = '٫' // ٫
)

// ToWestern converts Persian and Arabic-Indic digits to ASCII digits.
//
// Examples:
//
//	ToWestern("۱۲۳") -> "123"
//	ToWestern("٤٥") -> "45"
//	ToWestern("a۱b") -> "a1b"
func ToWestern(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= persianZero && r <= persianZero+9:
			return '0' + (r - persianZero)
		case r >= arabicIndicZero && r <= arabicIndicZero+9:
			return '0' + (r - arabicIndicZero)
		}
		return r
	}, s)
}

// ToPersian converts ASCII digits to Persian digits.
func ToPersian(s string) string {
	return shiftDigits(s, persianZero)
}

// ToArabicIndic converts ASCII digits to Arabic-Indic digits.
func ToArabicIndic(s string) string {
	return shiftDigits(s, arabicIndicZero)
}

func shiftDigits(s string, zero rune) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return zero + (r - '0')
		}
		return r
	}, s)
}

// NormalizeAmount canonicalizes user-typed amount text.
//
// Digits become ASCII, thousands separators (',' and '٬') are dropped and
// decimal separators ('٫' and '/') become '.'. Surrounding space is trimmed.
func NormalizeAmount(s string) string {
	s = ToWestern(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', persianThousandsSeparator:
			return -1
		case persianDecimalSeparator, '/':
			return '.'
		}
		return r
	}, s)
}

// ParseAmount parses a normalized or raw amount string.
//
// Only digits with at most one decimal point are accepted; signs, exponents
// and other characters are rejected with ErrInvalidAmount. A value that is
// not strictly positive returns ErrNonPositiveAmount.
//
// Examples:
//
//	ParseAmount("۵۰٬۰۰۰") -> 50000, nil
//	ParseAmount("12/5") -> 12.5, nil
//	ParseAmount("0") -> 0, ErrNonPositiveAmount
func ParseAmount(s string) (float64, error) {
	s = NormalizeAmount(s)
	if s == "" || s == "." {
		return 0, ErrInvalidAmount
	}
	dots := 0
	for _, r := range s {
		if r == '.' {
			dots++
			continue
		}
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	if dots > 1 {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrNonPositiveAmount
	}
	return v, nil
}

// FormatAmount renders an amount with ASCII digits and no grouping, the
// inverse of ParseAmount.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
