// Package sysutil holds the filesystem and process helpers used by the
// backup commands.
package sysutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// ListOptions filters the result of ListFiles.
type ListOptions struct {
	// Ext keeps files whose extension matches one of the given values,
	// compared case-insensitively. A leading dot is optional.
	Ext []string
	// Pattern keeps files whose relative path matches the regular expression.
	Pattern string
	// IgnoreCase makes Pattern case-insensitive.
	IgnoreCase bool
	// FullNames returns paths joined with the listed directory.
	FullNames bool
	// Recursive descends into subdirectories.
	Recursive bool
	// IncludeHidden keeps files whose name starts with a dot.
	IncludeHidden bool
}

// DefaultListOptions mirrors the common case: flat listing, hidden files kept,
// case-insensitive pattern.
func DefaultListOptions() ListOptions {
	return ListOptions{IgnoreCase: true, IncludeHidden: true}
}

// ListFiles lists the regular files under dir, sorted by path. Paths are
// relative to dir unless FullNames is set.
func ListFiles(dir string, opts ListOptions) ([]string, error) {
	var re *regexp.Regexp
	if opts.Pattern != "" {
		expr := opts.Pattern
		if opts.IgnoreCase {
			expr = "(?i)" + expr
		}
		var err error
		if re, err = regexp.Compile(expr); err != nil {
			return nil, err
		}
	}
	exts := make([]string, 0, len(opts.Ext))
	for _, e := range opts.Ext {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		switch {
		case !opts.IncludeHidden && strings.HasPrefix(d.Name(), "."):
			return nil
		case re != nil && !re.MatchString(rel):
			return nil
		case len(exts) > 0 && !slices.Contains(exts, strings.ToLower(filepath.Ext(rel))):
			return nil
		}
		if opts.FullNames {
			rel = filepath.Join(dir, rel)
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// ReplaceExt renames path to the same name with ext as its extension and
// returns the new path.
func ReplaceExt(path, ext string) (string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	renamed := strings.TrimSuffix(path, filepath.Ext(path)) + ext
	if err := os.Rename(path, renamed); err != nil {
		return "", err
	}
	return renamed, nil
}
