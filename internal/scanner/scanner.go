// Package scanner provides icon discovery for font builds.
//
// The scanner lists a single source directory for .svg files, derives icon
// names from file basenames, and returns sources in a deterministic order so
// the same directory always produces the same build inputs. It also computes
// content fingerprints used by the pipeline result cache to detect unchanged
// inputs between runs.
package scanner

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/MichealWayne/svgs2fonts-sub000/internal/logging"
)

// IconSource identifies one discovered icon file.
type IconSource struct {
	// Name is the icon name: the file basename without its extension,
	// normalized to NFC so the same visual name hashes identically across
	// filesystems.
	Name string
	// Path is the file path as resolvable from the working directory.
	Path string
}

// Scanner discovers icon sources in directories.
type Scanner struct {
	logger logging.Logger
}

// New creates a scanner. A nil logger discards diagnostics.
func New(logger logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scanner{logger: logger.WithComponent("scanner")}
}

// Scan lists dir for icon sources. The scan is non-recursive: subdirectories
// are batch units, never part of a single font. The .svg extension matches
// case-insensitively, duplicate names after normalization keep the
// lexicographically first file, and results are sorted by name. An empty
// directory yields an empty slice and no error; the caller decides whether
// zero icons is a failure.
func (s *Scanner) Scan(dir string) ([]IconSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".svg") {
			continue
		}
		names = append(names, entry.Name())
	}
	// Lexicographic file order makes duplicate resolution deterministic.
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	sources := make([]IconSource, 0, len(names))
	for _, file := range names {
		name := norm.NFC.String(strings.TrimSuffix(file, filepath.Ext(file)))
		if prev, dup := seen[name]; dup {
			s.logger.Warn(context.Background(), nil, "duplicate icon name, keeping first file",
				"name", name, "kept", prev, "skipped", file)
			continue
		}
		seen[name] = file
		sources = append(sources, IconSource{
			Name: name,
			Path: filepath.Join(dir, file),
		})
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })

	s.logger.Debug(context.Background(), "scanned icon directory", "dir", dir, "icons", len(sources))
	return sources, nil
}

// Fingerprint hashes the names and contents of all sources into a short hex
// digest. Two scans fingerprint equal exactly when every icon name and file
// body is unchanged, which lets the pipeline skip rebuilds.
func Fingerprint(sources []IconSource) (string, error) {
	table := crc32.MakeTable(crc32.Castagnoli)
	var sum uint32
	for _, src := range sources {
		sum = crc32.Update(sum, table, []byte(src.Name))
		content, err := os.ReadFile(src.Path)
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", src.Path, err)
		}
		sum = crc32.Update(sum, table, content)
	}
	return fmt.Sprintf("%08x-%d", sum, len(sources)), nil
}
