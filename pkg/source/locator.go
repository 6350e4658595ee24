// Package source resolves where template content is read from: a local
// directory used as-is, or a remote repository cloned into a scoped
// temporary directory.
package source

import (
	"net/url"
	"path"
	"strings"
)

// Kind distinguishes local from remote locators
type Kind int

const (
	// Local is a directory on the operator's disk
	Local Kind = iota
	// Remote is a git repository fetched on demand
	Remote
)

func (k Kind) String() string {
	if k == Remote {
		return "remote"
	}
	return "local"
}

// Locator is a parsed template location
type Locator struct {
	Kind Kind
	// Path is set for local locators.
	Path string
	// URL and Ref are set for remote locators. An empty Ref keeps the
	// repository's default branch.
	URL string
	Ref string
}

func (l Locator) String() string {
	if l.Kind == Local {
		return l.Path
	}
	if l.Ref == "" {
		return l.URL
	}
	return l.URL + "#" + l.Ref
}

// ParseLocator classifies raw. Anything that is not an http(s) URL is a
// local path. A raw-file URL of the form .../<repo>/<ref>/<entry>, where
// <repo> names the configured repository and <ref> may contain slashes,
// resolves to that repository at <ref>. Other URLs are cloned directly, with an optional #ref fragment.
func ParseLocator(raw, repository, entry string) Locator {
	if !isHTTP(raw) {
		return Locator{Kind: Local, Path: raw}
	}

	if ref, ok := rawFileRef(raw, repository, entry); ok {
		return Locator{Kind: Remote, URL: repository, Ref: ref}
	}

	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return Locator{Kind: Remote, URL: raw[:i], Ref: raw[i+1:]}
	}
	return Locator{Kind: Remote, URL: raw}
}

func isHTTP(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// rawFileRef extracts <ref> from a URL whose path ends in
// /<repoName>/<ref>/<entry>. The ref may span several segments, as branch
// names like feature/devise do; it runs from the last <repoName> segment to
// the entry file.
func rawFileRef(raw, repository, entry string) (string, bool) {
	if repository == "" || entry == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	n := len(segs)
	if n < 3 || segs[n-1] != entry {
		return "", false
	}

	name := repoName(repository)
	for i := n - 3; i >= 0; i-- {
		if segs[i] != name {
			continue
		}
		ref := segs[i+1 : n-1]
		for _, seg := range ref {
			if seg == "" {
				return "", false
			}
		}
		return strings.Join(ref, "/"), true
	}
	return "", false
}

// repoName returns the last path element of a repository URL without .git
func repoName(repository string) string {
	p := repository
	if u, err := url.Parse(repository); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.TrimSuffix(path.Base(strings.TrimRight(p, "/")), ".git")
}
