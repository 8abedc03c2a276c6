// Package baseline holds the reference-site analysis that every
// competitor comparison reads against. The store keeps a single slot
// updated by atomic swap, so comparisons running during a baseline
// refresh see either the old snapshot or the new one, never a mix.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/seo-compare/engine/analyzer"
	"github.com/seo-compare/engine/logging"
	"github.com/seo-compare/engine/schema"
)

const baselineFile = "baseline_seo.json"

// ErrNotFound is returned by Get when no baseline has been extracted yet.
var ErrNotFound = errors.New("baseline not yet computed")

var nonWord = regexp.MustCompile(`\W+`)

// Store persists SiteResults under a data directory and serves the
// active baseline from memory.
type Store struct {
	dir     string
	current atomic.Pointer[analyzer.SiteResult]
	log     zerolog.Logger
}

// NewStore ensures dir exists and loads a previously saved baseline if
// one is present. A snapshot written by an older parameter catalog is
// skipped with a warning; the next extraction replaces it on disk.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{dir: dir, log: logging.Component("baseline")}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	path := filepath.Join(s.dir, baselineFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read baseline: %w", err)
	}

	var res analyzer.SiteResult
	if err := json.Unmarshal(data, &res); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Stored baseline is unreadable, starting empty")
		return nil
	}
	if res.SchemaVersion != schema.Version {
		s.log.Warn().
			Str("stored", res.SchemaVersion).
			Str("current", schema.Version).
			Msg("Stored baseline predates the current parameter catalog, starting empty")
		return nil
	}

	s.current.Store(&res)
	s.log.Info().Str("url", res.URL).Time("analyzed_at", res.AnalyzedAt).Msg("Loaded saved baseline")
	return nil
}

// Get returns the active baseline or ErrNotFound when none exists.
func (s *Store) Get() (*analyzer.SiteResult, error) {
	if res := s.current.Load(); res != nil {
		return res, nil
	}
	return nil, ErrNotFound
}

// Set persists res and swaps it in as the active baseline. The swap
// happens only after the write lands, so a crash mid-write leaves the
// previous snapshot intact on disk and in memory.
func (s *Store) Set(res *analyzer.SiteResult) error {
	if res == nil {
		return errors.New("nil baseline result")
	}
	if err := s.write(baselineFile, res); err != nil {
		return err
	}
	s.current.Store(res)
	return nil
}

// Path returns the location of the baseline snapshot on disk.
func (s *Store) Path() string {
	return filepath.Join(s.dir, baselineFile)
}

// SaveCompetitor writes a competitor analysis beside the baseline for
// later inspection and returns the file path.
func (s *Store) SaveCompetitor(res *analyzer.SiteResult) (string, error) {
	if res == nil {
		return "", errors.New("nil competitor result")
	}
	name := CompetitorFileName(res.URL)
	if err := s.write(name, res); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// CompetitorFileName derives a snapshot filename from a URL: scheme
// stripped, every run of non-word characters collapsed to one
// underscore.
func CompetitorFileName(rawURL string) string {
	trimmed := strings.TrimPrefix(rawURL, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.Trim(nonWord.ReplaceAllString(trimmed, "_"), "_")
	if trimmed == "" {
		trimmed = "competitor"
	}
	return trimmed + "_seo.json"
}

// write lands data through a temp file and rename so a reader never
// observes a partial snapshot.
func (s *Store) write(name string, res *analyzer.SiteResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("rename temporary file: %w", err)
	}
	return nil
}
