package fileutil

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createScreenshotTree creates:
//
//	root/
//	  Pidgey - Lvl 20 - Cp 500 - Hp 80.png
//	  Eevee-LvlX-Cp100-Hp30.JPG
//	  notes.txt
//	  Phone - Lvl 15/
//	    Rattata - Cp 50 - Hp 20.jpg
//	    old/
//	      Zubat - Lvl 3 - Cp 30 - Hp 10.jpeg
//	  .thumbnails/
//	    Pidgey - Lvl 20 - Cp 500 - Hp 80.png
func createScreenshotTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := []string{
		"Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
		"Eevee-LvlX-Cp100-Hp30.JPG",
		"notes.txt",
		"Phone - Lvl 15/Rattata - Cp 50 - Hp 20.jpg",
		"Phone - Lvl 15/old/Zubat - Lvl 3 - Cp 30 - Hp 10.jpeg",
		".thumbnails/Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
	}

	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("image"), 0644))
	}

	return root
}

func baseNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	sort.Strings(names)
	return names
}

func TestScanDirectory(t *testing.T) {
	root := createScreenshotTree(t)

	tests := []struct {
		name      string
		opts      ScanOptions
		wantNames []string
	}{
		{
			name: "non-recursive image scan",
			opts: ScanOptions{Extensions: []string{".png", ".jpg"}},
			wantNames: []string{
				"Eevee-LvlX-Cp100-Hp30.JPG",
				"Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
			},
		},
		{
			name: "recursive image scan",
			opts: ScanOptions{Extensions: []string{".png", ".jpg", ".jpeg"}, Recursive: true},
			wantNames: []string{
				"Eevee-LvlX-Cp100-Hp30.JPG",
				"Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
				"Rattata - Cp 50 - Hp 20.jpg",
				"Zubat - Lvl 3 - Cp 30 - Hp 10.jpeg",
			},
		},
		{
			name: "extensions without dot",
			opts: ScanOptions{Extensions: []string{"PNG"}, Recursive: true},
			wantNames: []string{
				"Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
			},
		},
		{
			name: "no extension filter",
			opts: ScanOptions{Recursive: true},
			wantNames: []string{
				"Eevee-LvlX-Cp100-Hp30.JPG",
				"Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
				"Rattata - Cp 50 - Hp 20.jpg",
				"Zubat - Lvl 3 - Cp 30 - Hp 10.jpeg",
				"notes.txt",
			},
		},
		{
			name: "case-insensitive pattern",
			opts: ScanOptions{Extensions: []string{".png", ".jpg", ".jpeg"}, Recursive: true, Pattern: "^(pidgey|zubat)"},
			wantNames: []string{
				"Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
				"Zubat - Lvl 3 - Cp 30 - Hp 10.jpeg",
			},
		},
		{
			name: "hidden directories included on request",
			opts: ScanOptions{Extensions: []string{".png"}, Recursive: true, IncludeHidden: true},
			wantNames: []string{
				"Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
				"Pidgey - Lvl 20 - Cp 500 - Hp 80.png",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScanDirectory(root, tt.opts)
			require.NoError(t, err)
			assert.Empty(t, result.Errors)
			assert.Equal(t, tt.wantNames, baseNames(result.Files))

			for _, f := range result.Files {
				assert.True(t, filepath.IsAbs(f), "path should be absolute: %s", f)
			}
			assert.True(t, sort.StringsAreSorted(result.Files))
		})
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), ScanOptions{})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "shot.png")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
		_, err := ScanDirectory(file, ScanOptions{})
		assert.ErrorContains(t, err, "not a directory")
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := ScanDirectory(t.TempDir(), ScanOptions{Pattern: "("})
		assert.ErrorContains(t, err, "invalid pattern")
	})
}

func TestScanDirectory_UnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Pidgey - Lvl 20 - Cp 500 - Hp 80.png"), []byte("x"), 0644))
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "Zubat - Lvl 3 - Cp 30 - Hp 10.png"), []byte("x"), 0644))
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	result, err := ScanDirectory(dir, ScanOptions{Extensions: []string{".png"}, Recursive: true})
	require.NoError(t, err)
	assert.Len(t, result.Files, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, locked, result.Errors[0].Path)
	assert.ErrorIs(t, result.Errors[0], os.ErrPermission)
}

func TestScanError(t *testing.T) {
	err := &ScanError{Path: "/shots/box", Err: os.ErrPermission}
	assert.Equal(t, "cannot scan /shots/box: permission denied", err.Error())
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestScanDirectory_EmptyDirectory(t *testing.T) {
	result, err := ScanDirectory(t.TempDir(), ScanOptions{Extensions: []string{".png"}, Recursive: true})
	require.NoError(t, err)
	assert.NotNil(t, result.Files)
	assert.Empty(t, result.Files)
}

func TestNormalizeExtensions(t *testing.T) {
	got := NormalizeExtensions([]string{"png", ".JPG", " .jpeg ", ""})
	assert.Equal(t, map[string]bool{".png": true, ".jpg": true, ".jpeg": true}, got)
}
