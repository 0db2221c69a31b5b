package thermal

import (
	"fmt"
	"slices"
	"strings"

	"thermalctl/internal/thermal/profiles"
)

// Serialized table layout. A token is "<pkg>," and each list is a run of
// tokens; the two lists are joined by ":".
const (
	gamingLabel    = "gaming="
	benchmarkLabel = "benchmark="
	listSep        = ":"
	tokenSep       = ","
)

// EmptyValue is the serialized form of a table with no classified packages.
const EmptyValue = gamingLabel + listSep + benchmarkLabel

// Entry is one classified package.
type Entry struct {
	Package string           `json:"package"`
	Profile profiles.Profile `json:"profile"`
}

// Table maps package names to Gaming or Performance; every other package is
// Default. Membership order is kept so the serialized form is stable.
type Table struct {
	gaming      []string
	performance []string
	// unlabelled tables came from the bare "<csv>:<csv>" form and are
	// written back the same way.
	unlabelled bool
}

// ParseTable decodes a serialized table. The empty string is an empty table.
// A value without exactly one list separator, or with only one of the two
// list labels, fails with ErrMalformedTable.
//
// Tokens missing their trailing comma are not members. A package listed
// twice keeps its first position, and one listed in both lists stays Gaming.
func ParseTable(s string) (Table, error) {
	if s == "" {
		return Table{}, nil
	}

	left, right, ok := strings.Cut(s, listSep)
	if !ok || strings.Contains(right, listSep) {
		return Table{}, fmt.Errorf("%w: %q", ErrMalformedTable, s)
	}

	left, hasGaming := strings.CutPrefix(left, gamingLabel)
	right, hasBenchmark := strings.CutPrefix(right, benchmarkLabel)
	if hasGaming != hasBenchmark {
		return Table{}, fmt.Errorf("%w: %q", ErrMalformedTable, s)
	}

	seen := make(map[string]bool)
	return Table{
		gaming:      splitTokens(left, seen),
		performance: splitTokens(right, seen),
		unlabelled:  !hasGaming,
	}, nil
}

func splitTokens(list string, seen map[string]bool) []string {
	var out []string
	for list != "" {
		tok, rest, found := strings.Cut(list, tokenSep)
		if !found {
			break
		}
		list = rest
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// String encodes the table in its persisted form.
func (t Table) String() string {
	var b strings.Builder
	if !t.unlabelled {
		b.WriteString(gamingLabel)
	}
	for _, pkg := range t.gaming {
		b.WriteString(pkg)
		b.WriteString(tokenSep)
	}
	b.WriteString(listSep)
	if !t.unlabelled {
		b.WriteString(benchmarkLabel)
	}
	for _, pkg := range t.performance {
		b.WriteString(pkg)
		b.WriteString(tokenSep)
	}
	return b.String()
}

// Lookup returns the profile assigned to pkg.
func (t Table) Lookup(pkg string) profiles.Profile {
	switch {
	case slices.Contains(t.gaming, pkg):
		return profiles.Gaming
	case slices.Contains(t.performance, pkg):
		return profiles.Performance
	default:
		return profiles.Default
	}
}

// Set moves pkg into profile p and reports whether the table changed.
// A package already in p keeps its position.
func (t *Table) Set(pkg string, p profiles.Profile) bool {
	if t.Lookup(pkg) == p {
		return false
	}
	t.gaming = removeToken(t.gaming, pkg)
	t.performance = removeToken(t.performance, pkg)
	switch p {
	case profiles.Gaming:
		t.gaming = append(t.gaming, pkg)
	case profiles.Performance:
		t.performance = append(t.performance, pkg)
	}
	return true
}

// removeToken drops exact matches only; "com.a" never touches "com.a.b".
func removeToken(list []string, pkg string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == pkg })
}

// Entries lists classified packages, gaming first, in stored order.
func (t Table) Entries() []Entry {
	out := make([]Entry, 0, t.Len())
	for _, pkg := range t.gaming {
		out = append(out, Entry{Package: pkg, Profile: profiles.Gaming})
	}
	for _, pkg := range t.performance {
		out = append(out, Entry{Package: pkg, Profile: profiles.Performance})
	}
	return out
}

// Len is the number of non-Default packages.
func (t Table) Len() int { return len(t.gaming) + len(t.performance) }

// Clone returns a copy that shares no state with t.
func (t Table) Clone() Table {
	return Table{
		gaming:      slices.Clone(t.gaming),
		performance: slices.Clone(t.performance),
		unlabelled:  t.unlabelled,
	}
}

// ValidatePackage rejects identifiers that cannot be stored as a token.
func ValidatePackage(pkg string) error {
	if pkg == "" || strings.ContainsAny(pkg, tokenSep+listSep) || strings.TrimSpace(pkg) != pkg {
		return fmt.Errorf("%w: %q", ErrInvalidPackage, pkg)
	}
	return nil
}
