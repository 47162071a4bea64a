package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/paradiselovin/radiotherapy-data-hub/config"
	"github.com/paradiselovin/radiotherapy-data-hub/models"
	"github.com/paradiselovin/radiotherapy-data-hub/storage"
)

// SubmissionService baut aus einer Formular-Submission den kompletten
// Entity-Graphen (Artikel, Experiment, Links, Messdatei, Spalten) in genau
// einer Transaktion auf. Entweder wird alles durchgeschrieben oder nichts —
// inklusive der Datei auf der Platte.
type SubmissionService struct {
	Config *config.Config
	DB     *gorm.DB
	Store  *storage.UploadStore
	Logger *zap.Logger
}

// NewSubmissionService erstellt eine neue Instanz des SubmissionService.
func NewSubmissionService(cfg *config.Config, db *gorm.DB, store *storage.UploadStore, logger *zap.Logger) *SubmissionService {
	return &SubmissionService{
		Config: cfg,
		DB:     db,
		Store:  store,
		Logger: logger,
	}
}

// SubmissionInput ist die bereits normalisierte Formular-Submission.
type SubmissionInput struct {
	Title   string
	Authors string
	DOI     string

	Description string

	Machines  []MachineEntry
	Detectors []DetectorEntry
	Phantoms  []PhantomEntry

	FileName        string
	FileData        []byte
	DataType        string
	DataDescription string
	Columns         []ColumnMappingEntry
}

func (in *SubmissionInput) validate() error {
	switch {
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case in.Description == "":
		return fmt.Errorf("%w: experience_description is required", ErrValidation)
	case in.FileName == "":
		return fmt.Errorf("%w: file is required", ErrValidation)
	case in.DataType == "":
		return fmt.Errorf("%w: data_type is required", ErrValidation)
	}
	return nil
}

// SubmissionResult fasst die angelegten Wurzel-IDs und die Link-Zähler
// zusammen.
type SubmissionResult struct {
	ArticleID      uint `json:"article_id"`
	ExperienceID   uint `json:"experience_id"`
	DataID         uint `json:"data_id"`
	MachinesCount  int  `json:"machines_count"`
	DetectorsCount int  `json:"detectors_count"`
	PhantomsCount  int  `json:"phantoms_count"`
}

// fileFormat ist der Teil des Dateinamens nach dem letzten Punkt; ohne
// Endung bleibt das Format leer.
func fileFormat(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}
	return filename[idx+1:]
}

// Submit führt die komplette Submission aus.
//
// Reihenfolge ist fix: Artikel → Experiment → Maschinen → Detektoren →
// Phantome → Datei → Datenzeile → Spalten, weil jeder Schritt die IDs der
// vorigen braucht. Die Datei wird erst geschrieben, wenn das gesamte
// DB-Staging durch ist; scheitert danach noch etwas, wird sie beim Rollback
// wieder gelöscht.
func (s *SubmissionService) Submit(ctx context.Context, in SubmissionInput) (*SubmissionResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	filePath := ""
	fail := func(err error) (*SubmissionResult, error) {
		tx.Rollback()
		if filePath != "" {
			if rmErr := s.Store.Remove(filePath); rmErr != nil {
				// Nur loggen — der ursprüngliche Fehler darf nicht maskiert werden.
				s.Logger.Warn("Failed to clean up uploaded file after rollback",
					zap.String("path", filePath), zap.Error(rmErr))
			}
		}
		return nil, err
	}

	// Fail fast, bevor irgendetwas entsteht: DOI bereits vergeben?
	if in.DOI != "" {
		var count int64
		if err := tx.Model(&models.Article{}).Where("doi = ?", in.DOI).Count(&count).Error; err != nil {
			return fail(err)
		}
		if count > 0 {
			return fail(fmt.Errorf("%w: article with DOI %q already exists", ErrConflict, in.DOI))
		}
	}

	article := models.Article{Title: in.Title, Authors: in.Authors}
	if in.DOI != "" {
		doi := in.DOI
		article.DOI = &doi
	}
	if err := tx.Create(&article).Error; err != nil {
		return fail(classify(err))
	}

	experience := models.Experience{Description: in.Description, ArticleID: &article.ID}
	if err := tx.Create(&experience).Error; err != nil {
		return fail(classify(err))
	}

	for _, entry := range in.Machines {
		machine, err := GetOrCreateMachine(tx, entry.Manufacturer, entry.Model, entry.MachineType)
		if err != nil {
			return fail(classify(err))
		}
		link := models.ExperienceMachine{
			ExperienceID: experience.ID,
			MachineID:    machine.ID,
			Energy:       entry.Energy,
			Collimation:  entry.Collimation,
			Settings:     entry.Settings,
		}
		if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
			return fail(classify(err))
		}
	}

	for _, entry := range in.Detectors {
		detector, err := GetOrCreateDetector(tx, entry.DetectorType, entry.Model, entry.Manufacturer)
		if err != nil {
			return fail(classify(err))
		}
		link := models.ExperienceDetector{
			ExperienceID: experience.ID,
			DetectorID:   detector.ID,
			Position:     entry.Position,
			Depth:        entry.Depth,
			Orientation:  entry.Orientation,
		}
		if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
			return fail(classify(err))
		}
	}

	for _, entry := range in.Phantoms {
		phantom, err := GetOrCreatePhantom(tx, entry.Name, entry.PhantomType, entry.Dimensions, entry.Material)
		if err != nil {
			return fail(classify(err))
		}
		link := models.ExperiencePhantom{
			ExperienceID: experience.ID,
			PhantomID:    phantom.ID,
			Position:     entry.Position,
			Orientation:  entry.Orientation,
		}
		if err := tx.Omit(clause.Associations).Create(&link).Error; err != nil {
			return fail(classify(err))
		}
	}

	record, path, err := s.stageData(tx, experience.ID, in.FileName, in.FileData, in.DataType, in.DataDescription, in.Columns)
	filePath = path
	if err != nil {
		return fail(err)
	}

	if err := tx.Commit().Error; err != nil {
		return fail(err)
	}

	s.Logger.Info("Complete submission committed",
		zap.Uint("article_id", article.ID),
		zap.Uint("experience_id", experience.ID),
		zap.Uint("data_id", record.ID),
		zap.Int("machines", len(in.Machines)),
		zap.Int("detectors", len(in.Detectors)),
		zap.Int("phantoms", len(in.Phantoms)),
	)

	return &SubmissionResult{
		ArticleID:      article.ID,
		ExperienceID:   experience.ID,
		DataID:         record.ID,
		MachinesCount:  len(in.Machines),
		DetectorsCount: len(in.Detectors),
		PhantomsCount:  len(in.Phantoms),
	}, nil
}

// stageData schreibt die Messdatei und staged DataRecord plus Spalten in der
// offenen Transaktion. Der zurückgegebene Pfad ist auch bei Fehlern gesetzt,
// sobald die Datei geschrieben wurde, damit der Aufrufer sie wegräumen kann.
func (s *SubmissionService) stageData(tx *gorm.DB, experienceID uint, filename string, data []byte, dataType, description string, columns []ColumnMappingEntry) (*models.DataRecord, string, error) {
	path, err := s.Store.Save(experienceID, filename, data)
	if err != nil {
		return nil, "", err
	}

	record := models.DataRecord{
		ExperienceID: experienceID,
		DataType:     dataType,
		FileFormat:   fileFormat(filename),
		FilePath:     path,
		Description:  description,
	}
	if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
		return nil, path, classify(err)
	}

	for _, col := range columns {
		// Einträge ohne Name oder Datentyp werden stillschweigend verworfen.
		if col.Name == "" || col.DataType == "" {
			continue
		}
		mapping := models.ColumnMapping{
			DataID:            record.ID,
			ColumnName:        col.Name,
			ColumnDescription: col.Description,
			DataType:          col.DataType,
			Unit:              col.Unit,
		}
		if err := tx.Create(&mapping).Error; err != nil {
			return nil, path, classify(err)
		}
	}

	return &record, path, nil
}

// IngestData hängt eine weitere Messdatei an ein bestehendes Experiment —
// dieselbe Datei-plus-Zeilen-Disziplin wie bei der kompletten Submission,
// nur mit eigener Transaktion.
func (s *SubmissionService) IngestData(ctx context.Context, experienceID uint, filename string, data []byte, dataType, description string, columns []ColumnMappingEntry) (*models.DataRecord, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: file is required", ErrValidation)
	}
	if dataType == "" {
		return nil, fmt.Errorf("%w: data_type is required", ErrValidation)
	}

	tx := s.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	filePath := ""
	fail := func(err error) (*models.DataRecord, error) {
		tx.Rollback()
		if filePath != "" {
			if rmErr := s.Store.Remove(filePath); rmErr != nil {
				s.Logger.Warn("Failed to clean up uploaded file after rollback",
					zap.String("path", filePath), zap.Error(rmErr))
			}
		}
		return nil, err
	}

	var experience models.Experience
	if err := tx.First(&experience, experienceID).Error; err != nil {
		return fail(classify(err))
	}

	record, path, err := s.stageData(tx, experience.ID, filename, data, dataType, description, columns)
	filePath = path
	if err != nil {
		return fail(err)
	}

	if err := tx.Commit().Error; err != nil {
		return fail(err)
	}

	return record, nil
}
