// Package format turns raw CMS values into display strings.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/language"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

var monthNames = map[language.Base][12]string{
	mustBase("pt"): {"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	mustBase("en"): {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
}

// DefaultLocale is the locale FormatDate renders in.
var DefaultLocale = language.BrazilianPortuguese

var matcher = language.NewMatcher([]language.Tag{
	language.BrazilianPortuguese,
	language.English,
})

func mustBase(s string) language.Base {
	b, err := language.ParseBase(s)
	if err != nil {
		panic(err)
	}
	return b
}

// FormatDate renders an ISO-ish date as "d MMM yyyy" in pt-BR,
// e.g. "2021-03-25T12:00:00Z" -> "25 mar 2021".
func FormatDate(s string) string {
	return FormatDateIn(DefaultLocale, s)
}

// FormatDateIn is FormatDate for an arbitrary locale. Unsupported locales
// fall back to the closest supported one. Input that cannot be parsed is
// returned as is.
func FormatDateIn(tag language.Tag, s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	_, idx, _ := matcher.Match(tag)
	base, _ := []language.Tag{language.BrazilianPortuguese, language.English}[idx].Base()
	months := monthNames[base]
	return strconv.Itoa(t.Day()) + " " + months[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// ParseDate parses the date formats the CMS emits, including the
// "2006-01-02T15:04:05-0700" form that time.RFC3339 rejects. The returned
// time keeps the offset found in the input.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return dateparse.ParseIn(s, time.UTC)
}

// ReadingTime estimates reading minutes for the given texts at
// WordsPerMinute, rounding up. Empty content reads in zero minutes.
func ReadingTime(texts ...string) int {
	words := 0
	for _, t := range texts {
		words += len(strings.Fields(t))
	}
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}
