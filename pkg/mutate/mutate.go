// Package mutate applies targeted edits to existing text files. Each edit
// loads the whole file, changes it in memory and writes it back atomically.
package mutate

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/jumpstart/jumpstart/pkg/utils"
)

// Result describes the outcome of one rule
type Result struct {
	Path    string
	Rule    string
	Applied bool
}

// Predicate gates a conditional substitution
type Predicate interface {
	Evaluate() (bool, error)
}

// PredicateFunc adapts a function to Predicate
type PredicateFunc func() (bool, error)

// Evaluate calls f
func (f PredicateFunc) Evaluate() (bool, error) { return f() }

// Rule is a single named edit of one file
type Rule interface {
	Apply() (Result, error)
	String() string
}

// InsertAfter inserts Payload on the line after the first line containing
// Anchor.
type InsertAfter struct {
	Path    string
	Anchor  string
	Payload string
}

// Substitute replaces the first match of Pattern with Replacement. The
// replacement may reference groups as $1 or ${name}.
type Substitute struct {
	Path        string
	Pattern     string
	Replacement string
}

// ConditionalSubstitute behaves like Substitute when Predicate holds and
// leaves the file untouched otherwise.
type ConditionalSubstitute struct {
	Path        string
	Predicate   Predicate
	Pattern     string
	Replacement string
}

func (r InsertAfter) String() string {
	return fmt.Sprintf("insert after %q in %s", r.Anchor, r.Path)
}

func (r Substitute) String() string {
	return fmt.Sprintf("substitute /%s/ in %s", r.Pattern, r.Path)
}

func (r ConditionalSubstitute) String() string {
	return fmt.Sprintf("conditionally substitute /%s/ in %s", r.Pattern, r.Path)
}

// Apply performs the insert. When the payload already follows the anchor's
// line the file is left alone and Applied is false.
func (r InsertAfter) Apply() (Result, error) {
	res := Result{Path: r.Path, Rule: r.String()}

	text, mode, err := readText(r.Path)
	if err != nil {
		return res, err
	}

	updated, changed, err := insertAfter(text, r.Anchor, r.Payload)
	if err != nil {
		return res, &NotFoundError{Path: r.Path, Kind: "anchor", Needle: r.Anchor}
	}
	if !changed {
		return res, nil
	}

	if err := utils.WriteFileAtomic(r.Path, []byte(updated), mode); err != nil {
		return res, err
	}
	res.Applied = true
	return res, nil
}

// Apply performs the substitution
func (r Substitute) Apply() (Result, error) {
	res := Result{Path: r.Path, Rule: r.String()}

	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return res, fmt.Errorf("compile pattern %q: %w", r.Pattern, err)
	}

	text, mode, err := readText(r.Path)
	if err != nil {
		return res, err
	}

	updated, ok := substituteFirst(re, text, r.Replacement)
	if !ok {
		return res, &NotFoundError{Path: r.Path, Kind: "pattern", Needle: r.Pattern}
	}
	if updated == text {
		return res, nil
	}

	if err := utils.WriteFileAtomic(r.Path, []byte(updated), mode); err != nil {
		return res, err
	}
	res.Applied = true
	return res, nil
}

// Apply evaluates the predicate once and substitutes only when it holds
func (r ConditionalSubstitute) Apply() (Result, error) {
	res := Result{Path: r.Path, Rule: r.String()}
	if r.Predicate == nil {
		return res, fmt.Errorf("%s: no predicate", r.String())
	}

	ok, err := r.Predicate.Evaluate()
	if err != nil {
		return res, fmt.Errorf("%s: %w", r.String(), err)
	}
	if !ok {
		return res, nil
	}

	res, err = Substitute{Path: r.Path, Pattern: r.Pattern, Replacement: r.Replacement}.Apply()
	res.Rule = r.String()
	return res, err
}

// Unless is a predicate that holds while path does not contain text. It
// guards substitutions whose replacement would match their own pattern again.
func Unless(path, text string) Predicate {
	return PredicateFunc(func() (bool, error) {
		content, _, err := readText(path)
		if err != nil {
			return false, err
		}
		return !strings.Contains(content, text), nil
	})
}

func readText(path string) (string, os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, &utils.IOError{Op: "stat", Path: path, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, &utils.IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), info.Mode().Perm(), nil
}

// insertAfter returns text with payload placed on the line following the
// first line that contains anchor.
func insertAfter(text, anchor, payload string) (string, bool, error) {
	idx := strings.Index(text, anchor)
	if idx < 0 {
		return text, false, ErrNotFound
	}

	if payload != "" && !strings.HasSuffix(payload, "\n") {
		payload += "\n"
	}

	lineEnd := strings.IndexByte(text[idx+len(anchor):], '\n')
	if lineEnd < 0 {
		// Anchor sits on the final, unterminated line.
		return text + "\n" + payload, payload != "", nil
	}
	insertAt := idx + len(anchor) + lineEnd + 1

	if strings.HasPrefix(text[insertAt:], payload) {
		return text, false, nil
	}
	return text[:insertAt] + payload + text[insertAt:], true, nil
}

func substituteFirst(re *regexp.Regexp, text, replacement string) (string, bool) {
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, false
	}
	expanded := re.ExpandString(nil, replacement, text, loc)
	return text[:loc[0]] + string(expanded) + text[loc[1]:], true
}

// Apply runs rules in order and stops at the first error
func Apply(rules ...Rule) ([]Result, error) {
	results := make([]Result, 0, len(rules))
	for _, rule := range rules {
		res, err := rule.Apply()
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
