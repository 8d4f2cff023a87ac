package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CopyTree recursively copies a file or directory subtree to dst.
func CopyTree(src, dst string) error {
	return copyTree(src, dst)
}

// Exists reports whether the path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ProbeCopyName finds a non-colliding sibling name for a duplicate of base
// inside dir: "<base> Copy", then "<base> Copy 1", "<base> Copy 2", probing
// sequentially.
func ProbeCopyName(dir, base string) string {
	candidate := base + " Copy"
	if !Exists(filepath.Join(dir, candidate)) {
		return candidate
	}
	for i := 1; ; i++ {
		candidate = fmt.Sprintf("%s Copy %d", base, i)
		if !Exists(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}

// ListHTML returns the names of the .html files directly inside dir, in
// natural order ("page2.html" before "page10.html"). Subdirectories are not
// descended into; a book's pages live flat in its directory.
func ListHTML(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".html") {
			names = append(names, entry.Name())
		}
	}
	collate.New(language.Und, collate.Numeric).SortStrings(names)
	return names, nil
}

// ListSubdirs returns the names of the directories directly inside dir,
// naturally sorted. A missing dir yields an empty listing, not an error;
// callers treat an absent tree as an empty workspace.
func ListSubdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	collate.New(language.Und, collate.Numeric).SortStrings(names)
	return names, nil
}

// TreeSize returns the total size in bytes of all regular files under root.
func TreeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
