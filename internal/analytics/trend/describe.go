package trend

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatTrendDescription renders a one-line English summary for dashboards,
// e.g. "Revenue is increasing strongly (+42.5% over the period)".
func FormatTrendDescription(metric string, direction Direction, strength Strength, pct float64) string {
	return FormatTrendDescriptionLocale(metric, direction, strength, pct, "en")
}

// FormatTrendDescriptionLocale is FormatTrendDescription with locale-aware
// number formatting. Unknown locales fall back to English.
func FormatTrendDescriptionLocale(metric string, direction Direction, strength Strength, pct float64, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)

	subject := metric
	if subject == "" {
		subject = "Trend"
	}

	sign := "+"
	if pct < 0 {
		sign = "-"
	}

	if direction == DirectionStable {
		return p.Sprintf("%s is stable (%s%.1f%% over the period)", subject, sign, math.Abs(pct))
	}
	return p.Sprintf("%s is %s %s (%s%.1f%% over the period)", subject, direction, adverb(strength), sign, math.Abs(pct))
}

func adverb(s Strength) string {
	switch s {
	case StrengthStrong:
		return "strongly"
	case StrengthModerate:
		return "moderately"
	default:
		return "slightly"
	}
}
