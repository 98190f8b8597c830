package deal

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxCompanyNameLength = 100

var (
	companySuffixRe = regexp.MustCompile(`(?i)[\s,]+(Inc\.?|LLC|Ltd\.?|Corp\.?|Corporation|Company)$`)
	companyPrefixRe = regexp.MustCompile(`(?i)^The\s+`)
)

// NormalizeCompanyName trims noise from a company name: Unicode
// compatibility normalization, legal-form suffixes, a leading "The",
// and collapsed whitespace. Casing is preserved.
func NormalizeCompanyName(name string) string {
	name = norm.NFKC.String(strings.TrimSpace(name))
	name = companySuffixRe.ReplaceAllString(name, "")
	name = companyPrefixRe.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	if len(name) > maxCompanyNameLength {
		name = name[:maxCompanyNameLength]
	}
	return name
}

// DedupName is the case-folded form of a company name used in
// duplicate detection.
func DedupName(name string) string {
	return strings.ToLower(NormalizeCompanyName(name))
}

// stageForms maps spellings seen in the wild to canonical stage names.
// Order matters: "pre-seed" must match before "seed".
var stageForms = []struct {
	substr string
	stage  string
}{
	{"pre-seed", "Pre-Seed"},
	{"preseed", "Pre-Seed"},
	{"seed", "Seed"},
	{"series a", "Series A"},
	{"series b", "Series B"},
	{"series c", "Series C"},
	{"series d", "Series D+"},
	{"series e", "Series D+"},
	{"series f", "Series D+"},
	{"growth", "Growth"},
	{"late stage", "Growth"},
	{"venture", "Series A"},
}

// StandardizeStage maps a free-form funding stage string to one of the
// canonical stage names, or "Unknown".
func StandardizeStage(stage string) string {
	s := strings.ToLower(strings.TrimSpace(stage))
	if s == "" {
		return "Unknown"
	}
	for _, form := range stageForms {
		if strings.Contains(s, form.substr) {
			return form.stage
		}
	}
	return "Unknown"
}
