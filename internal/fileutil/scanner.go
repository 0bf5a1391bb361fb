package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Pattern is a regex matched case-insensitively against file names without extension
	Pattern string
	// Extensions is a list of file extensions to include (e.g., ".png", "jpg")
	Extensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
	// IncludeHidden also scans directories whose name starts with "."
	IncludeHidden bool
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files contains the absolute paths of all matched files, sorted
	Files []string
	// Errors contains the paths that could not be scanned, sorted by path
	Errors []*ScanError
}

// ScanError is a part of the tree that could not be scanned
type ScanError struct {
	Path string
	Err  error
}

// Error implements the error interface for ScanError.
func (e *ScanError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// ScanDirectory scans a directory for files matching the provided options
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	var patternRegex *regexp.Regexp
	if opts.Pattern != "" {
		patternRegex, err = regexp.Compile("(?i)" + opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
	}

	extMap := NormalizeExtensions(opts.Extensions)

	result := &ScanResult{
		Files:  make([]string, 0),
		Errors: make([]*ScanError, 0),
	}

	root := filepath.Clean(dir)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, &ScanError{Path: path, Err: err})
			return nil
		}

		if path == root {
			return nil
		}

		if d.IsDir() {
			if !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		filename := d.Name()
		ext := strings.ToLower(filepath.Ext(filename))
		if len(extMap) > 0 && !extMap[ext] {
			return nil
		}

		if patternRegex != nil && !patternRegex.MatchString(strings.TrimSuffix(filename, filepath.Ext(filename))) {
			return nil
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			result.Errors = append(result.Errors, &ScanError{Path: path, Err: err})
			return nil
		}

		result.Files = append(result.Files, absPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Files)
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].Path < result.Errors[j].Path
	})

	return result, nil
}

// NormalizeExtensions lower-cases extensions and makes sure they start with
// a dot. The result is a set for fast lookup.
func NormalizeExtensions(extensions []string) map[string]bool {
	extMap := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[ext] = true
	}
	return extMap
}
