// Package filter implements rsync-style path filtering for copy runs.
//
// Pattern grammar: `*` matches within one path segment, `?` matches one
// character, `**` crosses segment boundaries, `[...]` is a character class
// (`[!...]` negates). A trailing `/` restricts the pattern to directories.
// A pattern containing a `/` is anchored at the copy root; a bare name
// matches at any depth.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Rules is an ordered pattern list. The first pattern matching a path
// decides it; paths no pattern matches are copied. Include patterns sort
// ahead of excludes so they can punch holes in broad excludes.
type Rules struct {
	patterns []pattern
}

type pattern struct {
	re      *regexp.Regexp
	keep    bool
	dirOnly bool
}

// New compiles exclude and include pattern lists into Rules.
func New(excludes, includes []string) (*Rules, error) {
	r := &Rules{}
	for _, p := range includes {
		pat, err := compile(p, true)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", p, err)
		}
		r.patterns = append(r.patterns, pat)
	}
	for _, p := range excludes {
		pat, err := compile(p, false)
		if err != nil {
			return nil, fmt.Errorf("exclude %q: %w", p, err)
		}
		r.patterns = append(r.patterns, pat)
	}
	return r, nil
}

// Empty reports whether no patterns are loaded.
func (r *Rules) Empty() bool {
	return len(r.patterns) == 0
}

// Match reports whether relPath survives the rules. relPath is relative
// to the copy root and slash-separated. A rejected directory prunes its
// whole subtree, so callers must not descend into it.
func (r *Rules) Match(relPath string, isDir bool) bool {
	for _, p := range r.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if p.re.MatchString(relPath) {
			return p.keep
		}
	}
	return true
}

func compile(p string, keep bool) (pattern, error) {
	pat := pattern{keep: keep}

	if strings.HasSuffix(p, "/") {
		pat.dirOnly = true
		p = strings.TrimSuffix(p, "/")
	}
	anchored := strings.HasPrefix(p, "/")
	p = strings.TrimPrefix(p, "/")
	anchored = anchored || strings.Contains(p, "/")

	expr := globExpr(p)
	if anchored {
		expr = "^" + expr + "$"
	} else {
		expr = "(^|/)" + expr + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return pattern{}, err
	}
	pat.re = re
	return pat, nil
}

// globExpr translates a glob into a regexp. Splitting on `**` first keeps
// the segment translator free of lookahead: within a segment `*` never
// crosses a slash.
func globExpr(p string) string {
	parts := strings.Split(p, "**")

	var b strings.Builder
	b.WriteString(segmentExpr(parts[0]))
	for _, part := range parts[1:] {
		if rest, ok := strings.CutPrefix(part, "/"); ok {
			// `**/` also matches zero directories, so `**/name` catches
			// a root-level name.
			b.WriteString("(.*/)?")
			b.WriteString(segmentExpr(rest))
		} else {
			b.WriteString(".*")
			b.WriteString(segmentExpr(part))
		}
	}
	return b.String()
}

func segmentExpr(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '*':
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			j := classEnd(s, i)
			if j == 0 {
				b.WriteString(`\[`)
				break
			}
			cls := s[i+1 : j]
			if rest, ok := strings.CutPrefix(cls, "!"); ok {
				cls = "^" + rest
			}
			b.WriteString("[" + cls + "]")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// classEnd finds the closing bracket of a character class starting at
// start, or 0 if the class never closes. A `]` directly after `[` or `[!`
// is a literal member.
func classEnd(s string, start int) int {
	j := start + 1
	if j < len(s) && s[j] == '!' {
		j++
	}
	if j < len(s) && s[j] == ']' {
		j++
	}
	for j < len(s) && s[j] != ']' {
		j++
	}
	if j >= len(s) {
		return 0
	}
	return j
}
