package tutor

import "regexp"

// citationPattern matches file search citation markers such as 【12:3†source】.
var citationPattern = regexp.MustCompile(`【\d+:\d+†source】`)

// StripCitations removes every citation marker from s. Removal repeats
// until nothing matches, so text spliced together by a deletion cannot
// leave a new marker behind.
func StripCitations(s string) string {
	for {
		cleaned := citationPattern.ReplaceAllString(s, "")
		if cleaned == s {
			return cleaned
		}
		s = cleaned
	}
}
