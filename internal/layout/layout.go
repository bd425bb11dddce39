// Package layout parses the status line template and substitutes rendered
// module text into it.
//
// A placeholder is a module name in braces, e.g. "{cpu}". Anything else,
// including braces around an unknown name, is copied to the output as is.
package layout

import (
	"sort"
	"strings"

	lev "github.com/agnivade/levenshtein"
)

type Kind string

const (
	KindCPU      Kind = "cpu"
	KindMemory   Kind = "memory"
	KindNetwork  Kind = "netspeed"
	KindBattery  Kind = "battery"
	KindWeather  Kind = "weather"
	KindDateTime Kind = "datetime"
)

var kindByName = map[string]Kind{
	"cpu":      KindCPU,
	"memory":   KindMemory,
	"mem":      KindMemory,
	"netspeed": KindNetwork,
	"net":      KindNetwork,
	"battery":  KindBattery,
	"bat":      KindBattery,
	"weather":  KindWeather,
	"datetime": KindDateTime,
	"time":     KindDateTime,
}

// maxSuggestDistance bounds how far a typo may be from a known name.
const maxSuggestDistance = 2

type segment struct {
	text string
	kind Kind
}

// Template is immutable after Parse.
type Template struct {
	raw      string
	segments []segment
	kinds    []Kind
	unknown  []string
}

func Parse(raw string) *Template {
	t := &Template{raw: raw}
	seen := make(map[Kind]bool)

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	rest := raw
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			lit.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open+1:], '}')
		if closing < 0 {
			lit.WriteString(rest)
			break
		}
		closing += open + 1

		lit.WriteString(rest[:open])
		token := rest[open : closing+1]
		name := rest[open+1 : closing]

		kind, ok := kindByName[name]
		switch {
		case ok:
			flush()
			t.segments = append(t.segments, segment{text: token, kind: kind})
			if !seen[kind] {
				seen[kind] = true
				t.kinds = append(t.kinds, kind)
			}
		case isName(name):
			t.unknown = append(t.unknown, name)
			lit.WriteString(token)
		default:
			// "{" followed by something that is not a name; keep scanning
			// after the brace so "{{cpu}" still finds "{cpu}".
			lit.WriteByte('{')
			rest = rest[open+1:]
			continue
		}
		rest = rest[closing+1:]
	}
	flush()
	return t
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

func (t *Template) String() string { return t.raw }

// Kinds lists the recognized modules in order of first appearance.
func (t *Template) Kinds() []Kind {
	return append([]Kind(nil), t.kinds...)
}

func (t *Template) Has(kind Kind) bool {
	for _, k := range t.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Unknown lists brace-enclosed names that are not modules.
func (t *Template) Unknown() []string {
	return append([]string(nil), t.unknown...)
}

// Render walks the template in order. A placeholder whose kind lookup
// reports false is emitted verbatim.
func (t *Template) Render(lookup func(Kind) (string, bool)) string {
	var b strings.Builder
	b.Grow(len(t.raw) + 32*len(t.kinds))
	for _, s := range t.segments {
		if s.kind == "" {
			b.WriteString(s.text)
			continue
		}
		v, ok := lookup(s.kind)
		if !ok {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(v)
	}
	return b.String()
}

// Suggest returns the known placeholder name closest to name, if any is
// within a small edit distance.
func Suggest(name string) (string, bool) {
	names := make([]string, 0, len(kindByName))
	for n := range kindByName {
		names = append(names, n)
	}
	sort.Strings(names)

	best, bestDist := "", maxSuggestDistance+1
	lower := strings.ToLower(name)
	for _, n := range names {
		if d := lev.ComputeDistance(lower, n); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best, best != ""
}
