package http

import (
	"fmt"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"hesabdari/internal/core"
)

// displayFormatter renders amounts and dates for one display locale.
type displayFormatter struct {
	tag     language.Tag
	printer *message.Printer
	persian bool
	rtl     bool
}

func newDisplayFormatter(tag language.Tag) *displayFormatter {
	base, _ := tag.Base()
	f := &displayFormatter{
		tag:     tag,
		printer: message.NewPrinter(tag),
	}
	switch base.String() {
	case "fa":
		f.persian = true
		f.rtl = true
	case "ar", "he", "ur":
		f.rtl = true
	}
	return f
}

// Amount groups thousands and keeps at most two fraction digits.
func (f *displayFormatter) Amount(v float64) string {
	s := f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
	if f.persian {
		s = core.ToPersian(s)
	}
	return s
}

// Date shows t on the Solar Hijri calendar with the long month name for
// Persian locales, and as an ISO calendar date otherwise. Undated records
// render empty.
func (f *displayFormatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if !f.persian {
		return t.UTC().Format(time.DateOnly)
	}
	pt := ptime.New(t.UTC())
	return core.ToPersian(fmt.Sprintf("%d %s %d", pt.Day(), pt.Month().String(), pt.Year()))
}

func (f *displayFormatter) Lang() string {
	return f.tag.String()
}

func (f *displayFormatter) Dir() string {
	if f.rtl {
		return "rtl"
	}
	return "ltr"
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl drops control characters other than tab and line breaks.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
