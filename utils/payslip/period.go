package payslip

import (
	"regexp"
	"strconv"
	"time"

	"github.com/Aashish23092/payslip-verifier/dto"
	"github.com/Aashish23092/payslip-verifier/utils"
)

var (
	reNumericPeriod = regexp.MustCompile(`^[\s:]*(?:\d{1,2}\.)?(\d{1,2})[./](\d{4})\b`)
	reNamedPeriod   = regexp.MustCompile(`^[\s:]*([a-z]+)\s+(\d{4})\b`)
	reFullDate      = regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{4}\b`)
)

// monthNames holds folded month names for EN, DE, FR and IT.
var monthNames = map[string]time.Month{
	"january": time.January, "januar": time.January, "janvier": time.January, "gennaio": time.January,
	"february": time.February, "februar": time.February, "fevrier": time.February, "febbraio": time.February,
	"march": time.March, "marz": time.March, "mars": time.March, "marzo": time.March,
	"april": time.April, "avril": time.April, "aprile": time.April,
	"may": time.May, "mai": time.May, "maggio": time.May,
	"june": time.June, "juni": time.June, "juin": time.June, "giugno": time.June,
	"july": time.July, "juli": time.July, "juillet": time.July, "luglio": time.July,
	"august": time.August, "aout": time.August, "agosto": time.August,
	"september": time.September, "septembre": time.September, "settembre": time.September,
	"october": time.October, "oktober": time.October, "octobre": time.October, "ottobre": time.October,
	"november": time.November, "novembre": time.November,
	"december": time.December, "dezember": time.December, "decembre": time.December, "dicembre": time.December,
}

var periodPatterns = compileLabels(periodLabels)

// parsePeriodValue reads "12.2023", "12/2023", "01.12.2023" or "December 2023"
// at the start of s.
func parsePeriodValue(s string) (dto.Period, bool) {
	if m := reNumericPeriod.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return dto.Period{Year: year, Month: time.Month(month)}, true
		}
		return dto.Period{}, false
	}
	if m := reNamedPeriod.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[m[1]]
		if !ok {
			return dto.Period{}, false
		}
		year, _ := strconv.Atoi(m[2])
		return dto.Period{Year: year, Month: month}, true
	}
	return dto.Period{}, false
}

// findPeriod returns the labelled pay period. Without a label the first full
// date on the first page decides.
func findPeriod(pages [][]string) (dto.Period, error) {
	var found []dto.Period
	var texts []string
	for _, lines := range pages {
		for _, line := range lines {
			for _, re := range periodPatterns {
				for _, loc := range re.FindAllStringIndex(line, -1) {
					p, ok := parsePeriodValue(line[loc[1]:])
					if !ok || containsPeriod(found, p) {
						continue
					}
					found = append(found, p)
					texts = append(texts, p.String())
				}
			}
		}
	}

	switch {
	case len(found) == 1:
		return found[0], nil
	case len(found) > 1:
		return dto.Period{}, &ExtractionError{Reason: ErrAmbiguousMatch, Field: FieldPeriod, Candidates: texts}
	}

	if len(pages) > 0 {
		for _, line := range pages[0] {
			if date := reFullDate.FindString(line); date != "" {
				if t, err := utils.ParseDate(date); err == nil {
					return dto.Period{Year: t.Year(), Month: t.Month()}, nil
				}
			}
		}
	}
	return dto.Period{}, &ExtractionError{Reason: ErrFieldNotFound, Field: FieldPeriod}
}

func containsPeriod(periods []dto.Period, p dto.Period) bool {
	for _, q := range periods {
		if q == p {
			return true
		}
	}
	return false
}
