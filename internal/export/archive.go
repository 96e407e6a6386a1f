package export

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"sitebuilder/internal/layout"
)

// archiveTime is stamped on every archive entry so identical artifacts zip to
// identical bytes.
var archiveTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Archive packs the artifact files into a zip with sorted entries and fixed
// timestamps.
func Archive(a Artifact) ([]byte, error) {
	files := append([]File(nil), a.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		hdr := &zip.FileHeader{Name: f.Path, Method: zip.Deflate, Modified: archiveTime}
		hdr.SetMode(0o644)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", f.Path, err)
		}
		if _, err := w.Write(f.Body); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	unsafeName = regexp.MustCompile(`[^a-z0-9._-]+`)
)

// ArchiveName derives the download filename from a project name: whitespace
// runs become dashes, the result is lowercased and anything outside
// [a-z0-9._-] becomes a dash, so the name never carries a path.
func ArchiveName(name string) string {
	name = strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(name), "-"))
	name = unsafeName.ReplaceAllString(name, "-")
	name = strings.Trim(name, ".-")
	if name == "" {
		name = strings.ToLower(whitespace.ReplaceAllString(layout.DefaultName, "-"))
	}
	return name + ".zip"
}
