package sysutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrBinaryNotFound is returned when no executable matches a name.
var ErrBinaryNotFound = errors.New("sysutil: binary not found")

// BinaryNotFoundError names the binary and the directories searched.
type BinaryNotFoundError struct {
	Name string
	Dirs []string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("sysutil: no matching binary for %q in %v", e.Name, e.Dirs)
}

// Is reports whether target is ErrBinaryNotFound.
func (e *BinaryNotFoundError) Is(target error) bool {
	return target == ErrBinaryNotFound
}

// DefaultBinDirs are searched after PATH.
var DefaultBinDirs = []string{"/usr/bin", "/usr/local/bin"}

// FindBinaries returns every executable called name found in PATH, the
// DefaultBinDirs and the extra directories, in search order and without
// duplicates.
func FindBinaries(name string, extra ...string) []string {
	dirs := searchDirs(extra)
	var found []string
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
			continue
		}
		found = append(found, path)
	}
	return found
}

// FindBinary returns the first executable called name. See FindBinaries for
// the search order.
func FindBinary(name string, extra ...string) (string, error) {
	found := FindBinaries(name, extra...)
	if len(found) == 0 {
		return "", &BinaryNotFoundError{Name: name, Dirs: searchDirs(extra)}
	}
	return found[0], nil
}

func searchDirs(extra []string) []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(ds ...string) {
		for _, d := range ds {
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	add(filepath.SplitList(os.Getenv("PATH"))...)
	add(DefaultBinDirs...)
	add(extra...)
	return dirs
}

// Output is the result of a finished process. Text holds stdout and stderr
// interleaved as they were written.
type Output struct {
	Text     string
	ExitCode int
}

// Run executes name with args, waits for it and returns its combined output.
// A non-zero exit status is reported through Output.ExitCode, not as an error;
// the error is reserved for processes that could not be started.
func Run(ctx context.Context, name string, args ...string) (*Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
				return nil, &BinaryNotFoundError{Name: name}
			}
			return nil, fmt.Errorf("sysutil: run %s: %w", name, err)
		}
		exitCode = exitErr.ExitCode()
	}
	return &Output{Text: buf.String(), ExitCode: exitCode}, nil
}
