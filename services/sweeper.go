package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/paradiselovin/radiotherapy-data-hub/models"
	"github.com/paradiselovin/radiotherapy-data-hub/storage"
)

// Sweeper räumt Dateien im Upload-Verzeichnis ab, auf die keine
// DataRecord-Zeile mehr zeigt. Im Normalfall lässt der Submission-Rollback
// nichts liegen; der Sweep ist der Besenwagen für Abstürze mittendrin.
type Sweeper struct {
	DB     *gorm.DB
	Store  *storage.UploadStore
	Logger *zap.Logger
	// Dateien jünger als Grace werden übersprungen, damit laufende
	// Submissions nicht getroffen werden.
	Grace time.Duration
}

// NewSweeper erstellt eine neue Instanz des Sweeper.
func NewSweeper(db *gorm.DB, store *storage.UploadStore, logger *zap.Logger, grace time.Duration) *Sweeper {
	return &Sweeper{DB: db, Store: store, Logger: logger, Grace: grace}
}

// Sweep löscht verwaiste Upload-Dateien und liefert deren Anzahl.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	files, err := s.Store.List()
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}

	var paths []string
	if err := s.DB.WithContext(ctx).Model(&models.DataRecord{}).Pluck("file_path", &paths).Error; err != nil {
		return 0, err
	}
	known := make(map[string]bool, len(paths))
	for _, p := range paths {
		known[p] = true
	}

	cutoff := time.Now().Add(-s.Grace)
	removed := 0
	for _, file := range files {
		if known[file] {
			continue
		}
		modTime, err := s.Store.ModTime(file)
		if err != nil || modTime.After(cutoff) {
			continue
		}
		if err := s.Store.Remove(file); err != nil {
			s.Logger.Warn("Failed to remove orphaned upload", zap.String("path", file), zap.Error(err))
			continue
		}
		s.Logger.Info("Removed orphaned upload", zap.String("path", file))
		removed++
	}
	return removed, nil
}
