package util

import (
	"regexp"
	"strings"
)

var (
	// agency-specific identifiers like MP-CMS-1 or SC-ACA-2 (1)
	reAgencyControl = regexp.MustCompile(`^([A-Z]{2})-([A-Z]+)-(\d+)(?:\s+\((\d+)\))?`)
	// standard identifiers like AC-2 or AC-2 (1)
	reStandardControl = regexp.MustCompile(`^([A-Z]{2}-\d+)(?:\s+\((\d+)\))?`)
)

// NormalizeControlID converts a printed control label into the lowercase
// dotted identifier scheme used by the catalog tables: "AC-2 (1)" becomes
// "ac-2.1", "MP-CMS-1" becomes "mp-cms-1". Unrecognized labels are lowercased
// as-is.
func NormalizeControlID(label string) string {
	if m := reAgencyControl.FindStringSubmatch(label); m != nil {
		base := strings.ToLower(m[1] + "-" + m[2] + "-" + m[3])
		if m[4] != "" {
			return base + "." + m[4]
		}
		return base
	}

	m := reStandardControl.FindStringSubmatch(label)
	if m == nil {
		return strings.ToLower(label)
	}
	base := strings.ToLower(m[1])
	if m[2] != "" {
		return base + "." + m[2]
	}
	return base
}
