// pkg/compress/gitignore.go
package compress

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreRules holds the compiled .gitignore files met while walking a tree.
// Rules are loaded as the walk enters each directory, so a directory's own
// .gitignore applies to everything beneath it.
type ignoreRules struct {
	root  string
	rules map[string]*ignore.GitIgnore // slash-separated dir relative to root, "" = root
}

func newIgnoreRules(root string) *ignoreRules {
	return &ignoreRules{
		root:  filepath.Clean(root),
		rules: make(map[string]*ignore.GitIgnore),
	}
}

// enter compiles relDir/.gitignore when the directory has one
func (r *ignoreRules) enter(relDir string) error {
	key := slashKey(relDir)
	file := filepath.Join(r.root, filepath.FromSlash(key), ".gitignore")
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	gi, err := ignore.CompileIgnoreFile(file)
	if err != nil {
		return err
	}
	r.rules[key] = gi
	return nil
}

// ignored reports whether relPath is excluded by a .gitignore in any of its
// parent directories. Directories are matched with a trailing slash so
// patterns such as "build/" apply.
func (r *ignoreRules) ignored(relPath string, isDir bool) bool {
	if r == nil || len(r.rules) == 0 {
		return false
	}

	rel := filepath.ToSlash(relPath)
	for dir := path.Dir(rel); ; dir = path.Dir(dir) {
		key := slashKey(dir)
		if gi, ok := r.rules[key]; ok {
			sub := rel
			if key != "" {
				sub = strings.TrimPrefix(rel, key+"/")
			}
			if gi.MatchesPath(sub) {
				return true
			}
			if isDir && gi.MatchesPath(sub+"/") {
				return true
			}
		}
		if key == "" {
			return false
		}
	}
}

func slashKey(dir string) string {
	dir = filepath.ToSlash(dir)
	if dir == "." || dir == "/" {
		return ""
	}
	return strings.TrimSuffix(dir, "/")
}
