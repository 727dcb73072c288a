package backend

import (
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/language"
)

// Target describes what the caller wants from a candidate list.
type Target struct {
	// Locale is the wanted locale or bare language code. Empty means
	// locale-agnostic.
	Locale string

	// Quality is the preferred tier. QualityStandard also covers "no
	// preference set".
	Quality Quality

	// PreferNeural marks an explicit neural preference; without it,
	// standard candidates win ties.
	PreferNeural bool

	// NameFragments are preferred name substrings in descending priority
	// order (e.g. "latest", "7b"). The first fragment any candidate
	// contains decides the tie.
	NameFragments []string

	// Query optionally ranks remaining ties by fuzzy match against the
	// candidate names. Deterministic for a fixed candidate list.
	Query string
}

// Pick scores candidates against the target and returns the best match.
// The second return is false only for an empty candidate list; it is a
// sentinel, not an error, so callers choose their own fallback. Filters
// that match nothing relax to the full pool rather than failing, so a
// non-empty list always yields a candidate. Applied twice to the same
// inputs, Pick returns the same result.
func Pick(candidates []Candidate, target Target) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	pool := filterLocale(candidates, target.Locale)
	if len(pool) == 0 {
		pool = candidates
	}

	pool = filterQuality(pool, target)

	for _, fragment := range target.NameFragments {
		for _, c := range pool {
			if strings.Contains(strings.ToLower(c.Name), strings.ToLower(fragment)) {
				return c, true
			}
		}
	}

	if target.Query != "" {
		names := make([]string, len(pool))
		for i, c := range pool {
			names[i] = c.Name
		}
		if matches := fuzzy.Find(target.Query, names); len(matches) > 0 {
			return pool[matches[0].Index], true
		}
	}

	// Stable: first candidate in original order.
	return pool[0], true
}

// filterLocale keeps exact locale matches; if there are none, it falls back
// to language-family matches (target "en" keeps any "en-*"). An empty
// target keeps everything.
func filterLocale(candidates []Candidate, locale string) []Candidate {
	if locale == "" {
		return candidates
	}

	var exact []Candidate
	for _, c := range candidates {
		if strings.EqualFold(c.Locale, locale) {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}

	base := languageBase(locale)
	var family []Candidate
	for _, c := range candidates {
		if languageBase(c.Locale) == base {
			family = append(family, c)
		}
	}
	return family
}

// filterQuality keeps the preferred tier when any candidate has it;
// otherwise the pool passes through unchanged.
func filterQuality(pool []Candidate, target Target) []Candidate {
	want := QualityStandard
	if target.PreferNeural || target.Quality == QualityNeural {
		want = QualityNeural
	} else if target.Quality == QualityEnhanced {
		want = QualityEnhanced
	}

	var matched []Candidate
	for _, c := range pool {
		if c.Quality == want {
			matched = append(matched, c)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return pool
}

// languageBase extracts the base language ("en" from "en-US"). Tags that do
// not parse fall back to the text before the first separator, lowercased.
func languageBase(tag string) string {
	if tag == "" {
		return ""
	}
	if t, err := language.Parse(tag); err == nil {
		base, conf := t.Base()
		if conf != language.No {
			return base.String()
		}
	}
	cut := strings.IndexAny(tag, "-_")
	if cut >= 0 {
		tag = tag[:cut]
	}
	return strings.ToLower(tag)
}
