package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// UploadStore legt Messdateien unterhalb eines Wurzelverzeichnisses ab.
// Der Pfad ist deterministisch pro (experience, filename); ein zweiter
// Upload derselben Datei für dasselbe Experiment überschreibt die erste.
type UploadStore struct {
	Root string
}

// NewUploadStore legt das Wurzelverzeichnis an, falls es fehlt.
func NewUploadStore(root string) (*UploadStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{Root: root}, nil
}

// Path liefert den Ablagepfad <root>/<experienceID>_<filename>.
func (s *UploadStore) Path(experienceID uint, filename string) string {
	return filepath.Join(s.Root, fmt.Sprintf("%d_%s", experienceID, filepath.Base(filename)))
}

// Save schreibt die Datei vollständig gepuffert an ihren Ablagepfad und gibt
// diesen zurück.
func (s *UploadStore) Save(experienceID uint, filename string, data []byte) (string, error) {
	path := s.Path(experienceID, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// Remove löscht eine abgelegte Datei. Eine bereits fehlende Datei ist kein
// Fehler — Remove wird auch im Cleanup-Pfad gerufen.
func (s *UploadStore) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ModTime liefert den Änderungszeitpunkt einer abgelegten Datei.
func (s *UploadStore) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Exists meldet, ob am Pfad eine reguläre Datei liegt.
func (s *UploadStore) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// List liefert die Pfade aller regulären Dateien im Wurzelverzeichnis.
func (s *UploadStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			paths = append(paths, filepath.Join(s.Root, entry.Name()))
		}
	}
	return paths, nil
}
