package core

import (
	"strings"

	debversion "github.com/knqyf263/go-deb-version"
)

// CompareVersions orders two upstream version strings: negative when a
// sorts before b, zero when equal. Debian version ordering handles most
// upstream schemes (semver, date stamps, letter suffixes); strings that
// do not parse fall back to plain lexicographic comparison.
func CompareVersions(a string, b string) int {
	av, aerr := debversion.NewVersion(strings.TrimSpace(a))
	bv, berr := debversion.NewVersion(strings.TrimSpace(b))
	if aerr != nil || berr != nil {
		return strings.Compare(a, b)
	}
	return av.Compare(bv)
}

// SortVersionsDesc returns the versions ordered newest first.
func SortVersionsDesc(versions []string) []string {
	out := append([]string{}, versions...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && CompareVersions(out[j-1], out[j]) < 0; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
