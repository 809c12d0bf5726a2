// Package selection filters records by source identifier, time window and
// publication version.
//
// A selection file holds one rule per line:
//
//	SourceID [Starttime [Endtime [Pubversion]]]
//
// SourceID is a glob pattern (*, ?, [...]). Times are ISO
// "YYYY-MM-DD[THH:MM:SS[.fraction]][Z]" or SEED ordinal
// "YYYY,DDD[,HH:MM:SS[.fraction]]"; "*" leaves a bound open. Pubversion is an
// integer 0-255 or "*". Blank lines and lines starting with '#' are ignored.
//
//	# all broadband vertical channels of network XX on one day
//	FDSN:XX_*_*_B_H_Z  2024-02-10T00:00:00  2024-02-10T23:59:59.999999
//	FDSN:XX_STA1_*     *                    *                           2
//
// A Selection is immutable once loaded and safe for concurrent use.
package selection

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/nstime"
	"github.com/spf13/afero"
)

// Rule is one selection line.
type Rule struct {
	Pattern    string
	Start      nstime.Time
	End        nstime.Time
	Version    uint8
	HasStart   bool
	HasEnd     bool
	HasVersion bool
}

// Selection is an ordered set of rules. A record is selected when any rule matches.
type Selection struct {
	rules []Rule
}

// New builds a Selection from rules, validating each.
//
// Returns:
//   - *Selection: The selection
//   - error: ConfigurationError for an empty rule set, a bad pattern or an inverted window
func New(rules ...Rule) (*Selection, error) {
	if len(rules) == 0 {
		return nil, errs.Wrap(errs.KindConfiguration, "selection", errs.ErrEmptySelection)
	}

	for i, r := range rules {
		if err := r.validate(); err != nil {
			return nil, errs.Wrap(errs.KindConfiguration, fmt.Sprintf("selection rule %d", i+1), err)
		}
	}

	return &Selection{rules: append([]Rule(nil), rules...)}, nil
}

// Parse reads selection rules from r.
//
// Parameters:
//   - r: Selection file contents
//
// Returns:
//   - *Selection: The parsed selection
//   - error: ConfigurationError naming the first malformed line, or
//     ErrEmptySelection when r holds no rules
func Parse(r io.Reader) (*Selection, error) {
	var rules []Rule

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rule, err := parseLine(text)
		if err != nil {
			return nil, errs.Wrap(errs.KindConfiguration, fmt.Sprintf("selection line %d", line), err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "read selection", err)
	}

	return New(rules...)
}

// Load reads a selection file from fs.
func Load(fs afero.Fs, name string) (*Selection, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "open selection", err)
	}
	defer f.Close()

	sel, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return sel, nil
}

func parseLine(text string) (Rule, error) {
	fields := strings.Fields(text)
	if len(fields) > 4 {
		return Rule{}, fmt.Errorf("%w: %d fields, at most 4 allowed", errs.ErrInvalidSelection, len(fields))
	}

	r := Rule{Pattern: fields[0]}
	var err error

	if len(fields) > 1 && fields[1] != "*" {
		if r.Start, err = nstime.Parse(fields[1]); err != nil {
			return Rule{}, fmt.Errorf("%w: start time: %w", errs.ErrInvalidSelection, err)
		}
		r.HasStart = true
	}
	if len(fields) > 2 && fields[2] != "*" {
		if r.End, err = nstime.Parse(fields[2]); err != nil {
			return Rule{}, fmt.Errorf("%w: end time: %w", errs.ErrInvalidSelection, err)
		}
		r.HasEnd = true
	}
	if len(fields) > 3 && fields[3] != "*" {
		v, err := strconv.ParseUint(fields[3], 10, 8)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: publication version %q", errs.ErrInvalidSelection, fields[3])
		}
		r.Version = uint8(v)
		r.HasVersion = true
	}

	return r, r.validate()
}

func (r Rule) validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("%w: empty source pattern", errs.ErrInvalidSelection)
	}
	if _, err := path.Match(r.Pattern, ""); err != nil {
		return fmt.Errorf("%w: pattern %q: %w", errs.ErrInvalidSelection, r.Pattern, err)
	}
	if r.HasStart && r.HasEnd && r.End < r.Start {
		return fmt.Errorf("%w: end %s before start %s", errs.ErrInvalidSelection, r.End, r.Start)
	}

	return nil
}

// Matches reports whether a record of id and version spanning [start, end]
// is selected. The span must intersect a rule's inclusive window. A nil
// Selection selects everything.
func (s *Selection) Matches(id string, version uint8, start, end nstime.Time) bool {
	if s == nil {
		return true
	}

	for i := range s.rules {
		if s.rules[i].matches(id, version, start, end) {
			return true
		}
	}

	return false
}

// MatchesTime reports whether id and version at the instant t is selected.
func (s *Selection) MatchesTime(id string, version uint8, t nstime.Time) bool {
	return s.Matches(id, version, t, t)
}

// Rules returns a copy of the rules.
func (s *Selection) Rules() []Rule {
	if s == nil {
		return nil
	}

	return append([]Rule(nil), s.rules...)
}

// Len returns the number of rules.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}

	return len(s.rules)
}

func (r *Rule) matches(id string, version uint8, start, end nstime.Time) bool {
	if r.HasVersion && r.Version != version {
		return false
	}
	if r.HasStart && end < r.Start {
		return false
	}
	if r.HasEnd && start > r.End {
		return false
	}

	ok, _ := path.Match(r.Pattern, id)

	return ok
}
