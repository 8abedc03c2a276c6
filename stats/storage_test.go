package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("Counters", func(t *testing.T) {
		storage.AddComparison(false)
		storage.AddComparison(true)
		storage.AddExtraction()
		storage.AddError()

		stats := storage.GetCurrentStats()
		if stats.Comparisons != 2 {
			t.Errorf("Expected 2 comparisons, got %d", stats.Comparisons)
		}
		if stats.CacheHits != 1 || stats.CacheMisses != 1 {
			t.Errorf("Expected 1 hit / 1 miss, got %d / %d", stats.CacheHits, stats.CacheMisses)
		}
		if stats.Extractions != 1 {
			t.Errorf("Expected 1 extraction, got %d", stats.Extractions)
		}
		if stats.Errors != 1 {
			t.Errorf("Expected 1 error, got %d", stats.Errors)
		}
		if stats.LastUpdated.IsZero() {
			t.Error("LastUpdated not set")
		}
	})

	t.Run("VisitorsUniquePerMonth", func(t *testing.T) {
		storage.TrackVisitor("10.1.2.3")
		storage.TrackVisitor("10.1.2.3")
		storage.TrackVisitor("10.9.9.9")
		storage.TrackVisitor("")

		if got := storage.GetCurrentStats().Visitors; got != 2 {
			t.Errorf("Expected 2 unique visitors, got %d", got)
		}
	})

	t.Run("Persistence", func(t *testing.T) {
		if err := storage.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}

		storage2, err := NewStorage(tempDir)
		if err != nil {
			t.Fatalf("Failed to create second storage: %v", err)
		}

		stats := storage2.GetCurrentStats()
		if stats.Comparisons != 2 {
			t.Errorf("Expected 2 comparisons after reload, got %d", stats.Comparisons)
		}
		if stats.Visitors != 2 {
			t.Errorf("Expected 2 visitors after reload, got %d", stats.Visitors)
		}

		// A returning visitor stays counted once for the month.
		storage2.TrackVisitor("10.1.2.3")
		if got := storage2.GetCurrentStats().Visitors; got != 2 {
			t.Errorf("Expected 2 visitors after returning visit, got %d", got)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		oldMonth := time.Now().AddDate(0, -2, 0).Format("2006-01")
		storage.mutex.Lock()
		storage.months[oldMonth] = &MonthlyStats{Comparisons: 100}
		storage.visitors["10.0.0.1"] = time.Now().AddDate(0, -3, 0)
		storage.mutex.Unlock()

		storage.Cleanup()

		storage.mutex.RLock()
		_, monthKept := storage.months[oldMonth]
		_, visitorKept := storage.visitors["10.0.0.1"]
		storage.mutex.RUnlock()

		if monthKept {
			t.Error("Old month should have been cleaned up")
		}
		if visitorKept {
			t.Error("Stale visitor should have been cleaned up")
		}
	})

	t.Run("MonthListing", func(t *testing.T) {
		months := storage.GetAllMonths()
		if len(months) == 0 {
			t.Fatal("Expected at least the current month")
		}
		if months[0] != time.Now().Format("2006-01") {
			t.Errorf("Expected newest month first, got %s", months[0])
		}
		if _, ok := storage.GetMonthlyStats(months[0]); !ok {
			t.Error("GetMonthlyStats missed a listed month")
		}
	})

	t.Run("FileSize", func(t *testing.T) {
		if err := storage.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
		if err != nil {
			t.Fatalf("Failed to stat file: %v", err)
		}
		if info.Size() > 2048 {
			t.Errorf("File size too large: %d bytes", info.Size())
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats().Comparisons

		done := make(chan bool)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					storage.AddComparison(j%2 == 0)
					storage.GetCurrentStats()
				}
				done <- true
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		if got := storage.GetCurrentStats().Comparisons - before; got != 1000 {
			t.Errorf("Expected 1000 comparisons, got %d", got)
		}
	})
}
