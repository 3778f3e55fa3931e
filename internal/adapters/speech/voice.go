package speech

import (
	"strings"

	"github.com/rddesigner/GoogleAI-Rita-Das-Smart-Interview-Assistant/internal/domain"
)

// Preferences drive voice selection. Matching is best-effort: voice names on
// real platforms are free-form strings, so the gendered-name and vendor
// checks are substring matches, not guarantees.
type Preferences struct {
	Locale       string // e.g. "en-IN"
	Vendor       string // preferred vendor substring, e.g. "Google"
	GenderedName string // name substring to prefer, e.g. "female"
}

// SelectVoice walks the preference ladder over the platform voice catalog:
//  1. locale match + gendered-name match + vendor match
//  2. locale match + gendered-name match
//  3. locale match + vendor match
//  4. any locale match
//  5. any voice matching the base language tag
// falling back to the platform default voice.
func SelectVoice(voices []domain.Voice, prefs Preferences) domain.Voice {
	localeMatch := func(v domain.Voice) bool {
		return strings.EqualFold(v.Locale, prefs.Locale)
	}
	nameMatch := func(v domain.Voice) bool {
		return prefs.GenderedName != "" &&
			strings.Contains(strings.ToLower(v.Name), strings.ToLower(prefs.GenderedName))
	}
	vendorMatch := func(v domain.Voice) bool {
		return prefs.Vendor != "" &&
			strings.Contains(strings.ToLower(v.Vendor), strings.ToLower(prefs.Vendor))
	}

	ladder := []func(domain.Voice) bool{
		func(v domain.Voice) bool { return localeMatch(v) && nameMatch(v) && vendorMatch(v) },
		func(v domain.Voice) bool { return localeMatch(v) && nameMatch(v) },
		func(v domain.Voice) bool { return localeMatch(v) && vendorMatch(v) },
		localeMatch,
		func(v domain.Voice) bool { return baseLang(v.Locale) == baseLang(prefs.Locale) },
	}

	for _, rung := range ladder {
		for _, v := range voices {
			if rung(v) {
				return v
			}
		}
	}

	for _, v := range voices {
		if v.Default {
			return v
		}
	}
	if len(voices) > 0 {
		return voices[0]
	}
	return domain.Voice{}
}

func baseLang(locale string) string {
	base, _, _ := strings.Cut(strings.ToLower(locale), "-")
	return base
}
