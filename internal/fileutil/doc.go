// Package fileutil finds screenshots on disk.
//
// ScanDirectory walks a directory tree and returns the absolute, sorted paths
// of the files whose extension is in ScanOptions.Extensions (compared
// case-insensitively, with or without the leading dot). Hidden directories
// are skipped unless ScanOptions.IncludeHidden is set.
//
// An optional ScanOptions.Pattern restricts the result to files whose name,
// without extension, matches the regular expression (case-insensitive):
//
//	result, err := fileutil.ScanDirectory("screenshots", fileutil.ScanOptions{
//	    Extensions: []string{".png", ".jpg"},
//	    Recursive:  true,
//	    Pattern:    "^pidgey",
//	})
//
// Errors that only affect part of the tree (an unreadable sub-directory, a
// path that cannot be made absolute) do not stop the scan; they are collected
// in ScanResult.Errors.
package fileutil
