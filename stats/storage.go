// Package stats keeps monthly usage counters for the comparison service:
// unique visitors, comparison and extraction runs, cache effectiveness
// and error counts. Counters persist as JSON with buffered background
// writes so request paths never block on disk.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seo-compare/engine/logging"
)

// MonthlyStats are the usage counters for one calendar month.
type MonthlyStats struct {
	Visitors    int       `json:"visitors"`
	Comparisons int       `json:"comparisons"`
	Extractions int       `json:"extractions"`
	CacheHits   int       `json:"cache_hits"`
	CacheMisses int       `json:"cache_misses"`
	Errors      int       `json:"errors"`
	LastUpdated time.Time `json:"last_updated"`
}

// statsFile is the on-disk shape. The visitor map carries last-visit
// times so per-month uniqueness survives restarts.
type statsFile struct {
	Months   map[string]*MonthlyStats `json:"months"`
	Visitors map[string]time.Time     `json:"visitors"`
}

// Storage handles persistent storage of usage statistics.
type Storage struct {
	mutex       sync.RWMutex
	months      map[string]*MonthlyStats // key: "YYYY-MM"
	visitors    map[string]time.Time     // client IP -> last visit
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	log         zerolog.Logger
}

// NewStorage creates a statistics store under dataDir and starts its
// background writer.
func NewStorage(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Storage{
		months:      make(map[string]*MonthlyStats),
		visitors:    make(map[string]time.Time),
		filePath:    filepath.Join(dataDir, "stats.json"),
		writeBuffer: make(chan struct{}, 1),
		log:         logging.Component("stats"),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var file statsFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.log.Warn().Err(err).Msg("Stats file is unreadable, starting fresh")
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if file.Months != nil {
		s.months = file.Months
	}
	if file.Visitors != nil {
		s.visitors = file.Visitors
	}
	return nil
}

// save writes statistics through a temp file and rename.
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.Marshal(statsFile{Months: s.months, Visitors: s.visitors})
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("rename temporary file: %w", err)
	}
	return nil
}

// backgroundWriter handles buffered and periodic writes to disk.
func (s *Storage) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			s.flushOnce()
		case <-ticker.C:
			s.flushOnce()
		}
	}
}

func (s *Storage) flushOnce() {
	if err := s.save(); err != nil {
		s.log.Warn().Err(err).Msg("Stats write failed")
	}
}

// Flush forces a synchronous write, for shutdown paths and tests.
func (s *Storage) Flush() error {
	return s.save()
}

func getCurrentMonth() string {
	return time.Now().Format("2006-01")
}

// requestWrite signals the background writer; a full buffer means a
// write is already pending.
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

// month returns the counters for key, creating them on first use.
// Caller holds the write lock.
func (s *Storage) month(key string) *MonthlyStats {
	ms, exists := s.months[key]
	if !exists {
		ms = &MonthlyStats{}
		s.months[key] = ms
	}
	return ms
}

// bump applies update to the current month's counters and schedules a
// write at most once a minute.
func (s *Storage) bump(update func(*MonthlyStats)) {
	now := time.Now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	ms := s.month(now.Format("2006-01"))
	update(ms)
	ms.LastUpdated = now

	if now.Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = now
	}
}

// TrackVisitor counts ip once per calendar month.
func (s *Storage) TrackVisitor(ip string) {
	if ip == "" {
		return
	}
	now := time.Now()
	month := now.Format("2006-01")

	s.mutex.Lock()
	defer s.mutex.Unlock()

	last, seen := s.visitors[ip]
	s.visitors[ip] = now
	if seen && last.Format("2006-01") == month {
		return
	}

	ms := s.month(month)
	ms.Visitors++
	ms.LastUpdated = now

	if now.Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = now
	}
}

// AddComparison records one comparison run and whether the competitor
// analysis came from cache.
func (s *Storage) AddComparison(cacheHit bool) {
	s.bump(func(ms *MonthlyStats) {
		ms.Comparisons++
		if cacheHit {
			ms.CacheHits++
		} else {
			ms.CacheMisses++
		}
	})
}

// AddExtraction records one standalone extraction run.
func (s *Storage) AddExtraction() {
	s.bump(func(ms *MonthlyStats) { ms.Extractions++ })
}

// AddError records one fatal pipeline failure.
func (s *Storage) AddError() {
	s.bump(func(ms *MonthlyStats) { ms.Errors++ })
}

// GetCurrentStats returns counters for the current month.
func (s *Storage) GetCurrentStats() MonthlyStats {
	month := getCurrentMonth()

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if ms, exists := s.months[month]; exists {
		return *ms
	}
	return MonthlyStats{}
}

// GetMonthlyStats returns counters for a specific "YYYY-MM" month.
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if ms, exists := s.months[yearMonth]; exists {
		return *ms, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns the months with recorded statistics, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.months))
	for month := range s.months {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Cleanup drops counters older than the previous month and visitors not
// seen for two months, then schedules a write.
func (s *Storage) Cleanup() {
	now := time.Now()
	currentMonth := now.Format("2006-01")
	previousMonth := now.AddDate(0, -1, 0).Format("2006-01")
	visitorCutoff := now.AddDate(0, -2, 0)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for key := range s.months {
		if key != currentMonth && key != previousMonth {
			delete(s.months, key)
		}
	}
	for ip, last := range s.visitors {
		if last.Before(visitorCutoff) {
			delete(s.visitors, ip)
		}
	}

	s.requestWrite()
	s.log.Debug().Str("current", currentMonth).Str("previous", previousMonth).Msg("Retained statistics")
}
