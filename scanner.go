package main

import (
	"os"
	"strings"
)

// ScanPhotos lists the candidate photo files of a submission directory in
// listing order. The template file, hidden entries and subdirectories are
// excluded; extensions are checked later, at upload time.
func ScanPhotos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ScanError{Path: dir, Err: err}
	}

	photos := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if name == TemplateFileName || strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			continue
		}
		photos = append(photos, name)
	}
	return photos, nil
}
