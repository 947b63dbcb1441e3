package mirrors

import (
	"fmt"
	"regexp"

	"github.com/gobwas/glob"
	"github.com/sahilm/fuzzy"

	"github.com/glorpus-work/yapm/pkg/errutils"
)

// Mode selects how a search query is interpreted.
type Mode string

const (
	// ModeRegex matches names containing the query, which is a regular expression.
	ModeRegex Mode = "regex"
	// ModeGlob matches whole names against a glob pattern.
	ModeGlob Mode = "glob"
	// ModeFuzzy ranks names by fuzzy similarity, best first.
	ModeFuzzy Mode = "fuzzy"
)

// Modes lists the supported search modes.
var Modes = []Mode{ModeRegex, ModeGlob, ModeFuzzy}

// ParseMode validates a mode name. The empty string selects ModeRegex.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeRegex:
		return ModeRegex, nil
	case ModeGlob, ModeFuzzy:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown search mode %q (use regex, glob or fuzzy)", errutils.ErrValidation, s)
	}
}

// Search returns the package names matching query. Regex and glob results keep the order
// of the list; fuzzy results are ranked.
func (l *List) Search(query string, mode Mode) ([]string, error) {
	if mode == ModeFuzzy {
		var found []string
		for _, m := range fuzzy.Find(query, l.Packages) {
			found = append(found, m.Str)
		}
		return found, nil
	}

	match, err := newMatcher(query, mode)
	if err != nil {
		return nil, err
	}

	var found []string
	for _, name := range l.Packages {
		if match(name) {
			found = append(found, name)
		}
	}
	return found, nil
}

func newMatcher(query string, mode Mode) (func(string) bool, error) {
	switch mode {
	case ModeRegex, "":
		re, err := regexp.Compile("^.*(?:" + query + ").*$")
		if err != nil {
			return nil, fmt.Errorf("%w: invalid regular expression %q: %v", errutils.ErrValidation, query, err)
		}
		return re.MatchString, nil
	case ModeGlob:
		g, err := glob.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to compile glob pattern %q: %v", errutils.ErrValidation, query, err)
		}
		return g.Match, nil
	default:
		_, err := ParseMode(string(mode))
		return nil, err
	}
}
