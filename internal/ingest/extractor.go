package ingest

import (
	"regexp"
	"strings"
)

// Field values are derived by ordered rule tables: each rule is a regexp plus
// a builder over its captures, and the first rule to match wins. A field with
// no matching rule stays empty; callers treat empty as absent.

type extractRule struct {
	name  string
	re    *regexp.Regexp
	build func(m []string) string
}

func (r extractRule) apply(text string) (string, bool) {
	m := r.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(r.build(m)), true
}

func firstMatch(rules []extractRule, text string) string {
	for _, rule := range rules {
		if v, ok := rule.apply(text); ok && v != "" {
			return v
		}
	}
	return ""
}

func wholeMatch(m []string) string { return m[0] }
func firstGroup(m []string) string { return m[1] }

// councilReferenceRules match the fixed PLN-NN-NNNN application code anywhere
// in the title.
var councilReferenceRules = []extractRule{
	{name: "pln_code", re: regexp.MustCompile(`PLN-\d{2}-\d{4}`), build: wholeMatch},
}

// addressRules recover the address between the reference code and the first
// colon. Titles written as "street, suburb" get both segments rejoined; the
// plain up-to-colon form is the fallback.
var addressRules = []extractRule{
	{
		name: "street_suburb",
		re:   regexp.MustCompile(`PLN-\d{2}-\d{4}\s*-\s*([^,:]+?)\s*,\s*([^:]+?)\s*:`),
		build: func(m []string) string {
			return strings.TrimSpace(m[1]) + ", " + strings.TrimSpace(m[2])
		},
	},
	{
		name:  "up_to_colon",
		re:    regexp.MustCompile(`PLN-\d{2}-\d{4}\s*-\s*([^:]+?)\s*:`),
		build: firstGroup,
	},
}

// titleDescriptionRules take everything after the first colon.
var titleDescriptionRules = []extractRule{
	{name: "after_colon", re: regexp.MustCompile(`:\s*(.+)$`), build: firstGroup},
}

// descriptorDescriptionRules pull a hyphen-delimited description out of the
// caption next to the document link, e.g. "(CT 21938/12) - Outbuilding
// addition". The caption is more specific than the title, so the pipeline
// lets this value override the title-derived one.
var descriptorDescriptionRules = []extractRule{
	{name: "after_parens_hyphen", re: regexp.MustCompile(`\)\s*-\s*(.+)$`), build: firstGroup},
	{name: "after_hyphen", re: regexp.MustCompile(`\s-\s(.+)$`), build: firstGroup},
}

// titleReferenceRules recover the certificate of title from the caption's
// parenthesised group, stripping the "CT" certificate-type token. The bare
// numeric form appears on older page revisions.
var titleReferenceRules = []extractRule{
	{name: "ct_prefixed", re: regexp.MustCompile(`\(\s*CT\s*(\d+/\d+)\s*\)`), build: firstGroup},
	{name: "bare_folio", re: regexp.MustCompile(`\(\s*(\d+/\d+)\s*\)`), build: firstGroup},
}

// extractTitleFields derives reference, address and description from an
// entry's title blob. A title without a council reference yields an empty
// CouncilReference, which the pipeline treats as a hard skip for the entry.
func extractTitleFields(title string) TitleFields {
	title = cleanFragmentText(title)
	return TitleFields{
		CouncilReference: firstMatch(councilReferenceRules, title),
		Address:          firstMatch(addressRules, title),
		Description:      firstMatch(titleDescriptionRules, title),
	}
}

// extractDescriptorFields derives the title reference and an override
// description from an entry's caption blob.
func extractDescriptorFields(descriptor string) DescriptorFields {
	descriptor = cleanFragmentText(descriptor)
	return DescriptorFields{
		TitleReference: firstMatch(titleReferenceRules, descriptor),
		Description:    firstMatch(descriptorDescriptionRules, descriptor),
	}
}
