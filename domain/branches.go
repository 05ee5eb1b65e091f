package domain

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// SortBranches orders a branch list for presentation: the default branch
// first, then version-like branches (release/1.2.0, v2.1.0, 3.0.0) newest
// first, then everything else alphabetically.
func SortBranches(branches []BranchInfo) {
	sort.SliceStable(branches, func(i, j int) bool {
		a, b := branches[i], branches[j]
		if a.IsDefault != b.IsDefault {
			return a.IsDefault
		}

		av, aOK := branchVersion(a.Name)
		bv, bOK := branchVersion(b.Name)
		if aOK != bOK {
			return aOK
		}
		if aOK && bOK {
			if cmp := semver.Compare(av, bv); cmp != 0 {
				return cmp > 0
			}
		}

		return a.Name < b.Name
	})
}

// branchVersion extracts a comparable semantic version from a branch name,
// accepting the common release branch shapes.
func branchVersion(name string) (string, bool) {
	candidate := name
	for _, prefix := range []string{"release/", "releases/", "release-"} {
		if strings.HasPrefix(candidate, prefix) {
			candidate = strings.TrimPrefix(candidate, prefix)
			break
		}
	}

	candidate = normalizeVersion(candidate)
	if !semver.IsValid(candidate) {
		return "", false
	}
	return candidate, true
}

func normalizeVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// DefaultBranchOf returns the name of the branch marked default, or "" when
// the listing carries none.
func DefaultBranchOf(branches []BranchInfo) string {
	for _, branch := range branches {
		if branch.IsDefault {
			return branch.Name
		}
	}
	return ""
}

// HasBranch reports whether the listing contains the named branch.
func HasBranch(branches []BranchInfo, name string) bool {
	for _, branch := range branches {
		if branch.Name == name {
			return true
		}
	}
	return false
}
