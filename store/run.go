// Package store persists pipeline state to disk: per-run timestamped
// directories, raw DMA buffer dumps, and spectrum/combined-spectrum CSV
// files. Grounded on the teacher's store package (directory-per-key
// layout in store.SignalStore, encoding/csv usage in
// store.BandStore.ImportCSV) and on original_source/src/util/fileIO.cpp
// for the exact on-disk formats.
package store

import (
	"os"
	"path/filepath"
	"time"
)

// RunDir creates and returns a timestamped run directory
// (YYYY-MM-DD_HH-MM-SS) under base, matching the original's
// getDateTimeString layout.
func RunDir(base string, now time.Time) (string, error) {
	dir := filepath.Join(base, now.Format("2006-01-02_15-04-05"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
