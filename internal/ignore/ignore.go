// Package ignore decides which files and namespaces are left out of mining.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	gitignore "github.com/sabhiram/go-gitignore"
)

// Predicates is consulted before every install.
type Predicates interface {
	IsPathIgnored(path string) bool
	IsNamespaceIgnored(qualifiedName string) bool
}

type none struct{}

func (none) IsPathIgnored(string) bool      { return false }
func (none) IsNamespaceIgnored(string) bool { return false }

// None ignores nothing.
var None Predicates = none{}

const cacheSize = 4096

// Registry matches paths against gitignore-style patterns and qualified names
// against namespace rules. Answers are memoized.
type Registry struct {
	root     string
	paths    *gitignore.GitIgnore
	prefixes []string
	patterns []*regexp.Regexp

	pathCache *lru.Cache[string, bool]
	nsCache   *lru.Cache[string, bool]
}

// New builds a registry. Path patterns use .gitignore syntax and are matched
// relative to root. A namespace rule is either a qualified name, matching
// itself and everything nested in it, or "re:" followed by a regular
// expression.
func New(root string, pathPatterns, namespaceRules []string) (*Registry, error) {
	r := &Registry{root: root}
	if len(pathPatterns) > 0 {
		r.paths = gitignore.CompileIgnoreLines(pathPatterns...)
	}
	for _, rule := range namespaceRules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		if expr, ok := strings.CutPrefix(rule, "re:"); ok {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("invalid namespace rule %q: %w", rule, err)
			}
			r.patterns = append(r.patterns, re)
			continue
		}
		r.prefixes = append(r.prefixes, strings.TrimSuffix(rule, "::"))
	}

	var err error
	if r.pathCache, err = lru.New[string, bool](cacheSize); err != nil {
		return nil, err
	}
	if r.nsCache, err = lru.New[string, bool](cacheSize); err != nil {
		return nil, err
	}
	return r, nil
}

// Load builds a registry from rule files, one rule per line. Blank lines and
// lines starting with # are skipped. Empty file names and missing files
// contribute no rules.
func Load(root, pathsFile, namespacesFile string) (*Registry, error) {
	paths, err := readRules(pathsFile)
	if err != nil {
		return nil, err
	}
	namespaces, err := readRules(namespacesFile)
	if err != nil {
		return nil, err
	}
	return New(root, paths, namespaces)
}

func readRules(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer f.Close()

	var rules []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}
	return rules, nil
}

func (r *Registry) IsPathIgnored(path string) bool {
	if r.paths == nil || path == "" {
		return false
	}
	if v, ok := r.pathCache.Get(path); ok {
		return v
	}
	v := r.paths.MatchesPath(r.relative(path))
	r.pathCache.Add(path, v)
	return v
}

func (r *Registry) relative(path string) string {
	if r.root == "" || !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	root, err := filepath.Abs(r.root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (r *Registry) IsNamespaceIgnored(qualifiedName string) bool {
	if len(r.prefixes) == 0 && len(r.patterns) == 0 {
		return false
	}
	if v, ok := r.nsCache.Get(qualifiedName); ok {
		return v
	}
	v := r.matchNamespace(qualifiedName)
	r.nsCache.Add(qualifiedName, v)
	return v
}

func (r *Registry) matchNamespace(qn string) bool {
	qn = strings.TrimSuffix(qn, "::")
	for _, p := range r.prefixes {
		if qn == p || strings.HasPrefix(qn, p+"::") {
			return true
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(qn) {
			return true
		}
	}
	return false
}
