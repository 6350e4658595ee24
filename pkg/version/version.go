// Package version evaluates RubyGems-style version requirements against the
// detected Rails version of the target project.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var gemVersionPattern = regexp.MustCompile(`^v?[0-9]+(\.[0-9A-Za-z]+)*(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?$`)

var tokenPattern = regexp.MustCompile(`[0-9]+|[A-Za-z]+`)

// segment is one numeric or alphabetic piece of a version
type segment struct {
	num   uint64
	label string
}

func (s segment) isLabel() bool { return s.label != "" }

// Version is a RubyGems version. The first three numeric segments form the
// semver core; anything after them (a fourth patch number, "rc1", "beta")
// is kept as the tail and ordered the way RubyGems orders it.
type Version struct {
	raw     string
	written []segment
	core    *semver.Version
	tail    []segment
}

// Parse reads "5.2.1", "5.2.4.1", "6.0.0.beta1" or "Rails 5.2.1"
func Parse(raw string) (*Version, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "Rails "))
	if !gemVersionPattern.MatchString(s) {
		return nil, fmt.Errorf("invalid version %q", raw)
	}
	s = strings.ReplaceAll(strings.TrimPrefix(s, "v"), "-", ".pre.")

	var segs []segment
	for _, tok := range tokenPattern.FindAllString(s, -1) {
		if tok[0] >= '0' && tok[0] <= '9' {
			n, err := strconv.ParseUint(tok, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid version %q: %w", raw, err)
			}
			segs = append(segs, segment{num: n})
			continue
		}
		segs = append(segs, segment{label: tok})
	}
	v := fromSegments(segs)
	v.raw = raw
	return v, nil
}

func fromSegments(segs []segment) *Version {
	var core [3]uint64
	i := 0
	for ; i < len(segs) && i < 3 && !segs[i].isLabel(); i++ {
		core[i] = segs[i].num
	}
	return &Version{
		written: segs,
		core:    semver.New(core[0], core[1], core[2], "", ""),
		tail:    segs[i:],
	}
}

// Prerelease reports whether v carries an alphabetic label
func (v *Version) Prerelease() bool {
	for _, s := range v.tail {
		if s.isLabel() {
			return true
		}
	}
	return false
}

// releaseSegments drops the first label and everything after it
func (v *Version) releaseSegments() []segment {
	for i, s := range v.written {
		if s.isLabel() {
			return v.written[:i]
		}
	}
	return v.written
}

func (v *Version) release() *Version {
	if !v.Prerelease() {
		return v
	}
	r := fromSegments(v.releaseSegments())
	r.raw = v.raw
	return r
}

// Compare orders v against o. Missing segments count as zero and a label
// sorts before any number, so 5.2.0.rc1 < 5.2 < 5.2.0.1.
func (v *Version) Compare(o *Version) int {
	if c := v.core.Compare(o.core); c != 0 {
		return c
	}
	n := len(v.tail)
	if len(o.tail) > n {
		n = len(o.tail)
	}
	for i := 0; i < n; i++ {
		a, b := segment{}, segment{}
		if i < len(v.tail) {
			a = v.tail[i]
		}
		if i < len(o.tail) {
			b = o.tail[i]
		}
		switch {
		case a.isLabel() && b.isLabel():
			if c := strings.Compare(a.label, b.label); c != 0 {
				return c
			}
		case a.isLabel():
			return -1
		case b.isLabel():
			return 1
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
	}
	return 0
}

func (v *Version) String() string { return v.raw }

// bump returns the upper bound of a pessimistic requirement: labels are
// dropped, then the last written segment, and the new last segment is
// incremented. 6.0 bumps to 7, 4.3.1 to 4.4.
func (v *Version) bump() *Version {
	segs := append([]segment(nil), v.releaseSegments()...)
	if len(segs) > 1 {
		segs = segs[:len(segs)-1]
	}
	segs[len(segs)-1].num++
	return fromSegments(segs)
}

type clause struct {
	op      string
	version *Version
}

var clausePattern = regexp.MustCompile(`^(~>|>=|<=|!=|=|>|<)?\s*(\S+)$`)

// Requirement is a parsed RubyGems requirement such as "> 5.2" or
// ">= 5.2, < 6.1". All clauses must hold.
type Requirement struct {
	raw     string
	clauses []clause
}

// ParseRequirement parses a comma-separated list of clauses
func ParseRequirement(requirement string) (*Requirement, error) {
	r := &Requirement{raw: requirement}
	for _, part := range strings.Split(requirement, ",") {
		m := clausePattern.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			return nil, fmt.Errorf("invalid requirement %q", requirement)
		}
		v, err := Parse(m[2])
		if err != nil {
			return nil, fmt.Errorf("invalid requirement %q: %w", requirement, err)
		}
		op := m[1]
		if op == "" {
			op = "="
		}
		r.clauses = append(r.clauses, clause{op: op, version: v})
	}
	return r, nil
}

// Check reports whether v meets every clause
func (r *Requirement) Check(v *Version) bool {
	for _, c := range r.clauses {
		if !c.check(v) {
			return false
		}
	}
	return true
}

func (r *Requirement) String() string { return r.raw }

func (c clause) check(v *Version) bool {
	cmp := v.Compare(c.version)
	switch c.op {
	case "=":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	case ">=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case "~>":
		return cmp >= 0 && v.release().Compare(c.version.bump()) < 0
	}
	return false
}

// Satisfies reports whether host meets requirement (">= 5.2", "> 5.2",
// "~> 6.0" style constraints), using RubyGems ordering.
func Satisfies(host, requirement string) (bool, error) {
	v, err := Parse(host)
	if err != nil {
		return false, err
	}
	r, err := ParseRequirement(requirement)
	if err != nil {
		return false, err
	}
	return r.Check(v), nil
}

// Predicate compares a lazily detected host version against a minimum
// requirement.
type Predicate struct {
	Requirement string
	Detect      func() (string, error)
}

// Evaluate detects the host version and checks it against the requirement.
// Callers evaluate once per step.
func (p Predicate) Evaluate() (bool, error) {
	if p.Detect == nil {
		return false, fmt.Errorf("no version detector for requirement %q", p.Requirement)
	}
	host, err := p.Detect()
	if err != nil {
		return false, fmt.Errorf("detect host version: %w", err)
	}
	return Satisfies(host, p.Requirement)
}

// String describes the predicate for log output
func (p Predicate) String() string {
	return "rails " + p.Requirement
}
