package services

import (
	"context"
	"errors"
	"testing"

	"github.com/paradiselovin/radiotherapy-data-hub/models"
)

func fullInput() SubmissionInput {
	return SubmissionInput{
		Title:       "Dose linearity of a 6MV beam",
		Authors:     "Mueller, K.; Haas, J.",
		DOI:         "10.1000/dose-linearity",
		Description: "PDD measurement in water",
		Machines: []MachineEntry{
			{Manufacturer: "Varian", Model: "TrueBeam", MachineType: "Linac", Energy: "6MV", Collimation: "10x10"},
		},
		Detectors: []DetectorEntry{
			{DetectorType: "ionization_chamber", Model: "FC65-G", Manufacturer: "IBA", Position: "central axis", Depth: "10cm"},
		},
		Phantoms: []PhantomEntry{
			{Name: "WaterTank", PhantomType: "water", Dimensions: "30x30x30", Material: "water", Position: "isocenter"},
		},
		FileName:        "pdd_6mv.csv",
		FileData:        []byte("depth,dose\n0,0.5\n10,1.0\n"),
		DataType:        "PDD",
		DataDescription: "percentage depth dose",
		Columns: []ColumnMappingEntry{
			{Name: "depth", Description: "measurement depth", DataType: "numeric", Unit: "mm"},
			{Name: "dose", Description: "relative dose", DataType: "numeric", Unit: "percent"},
		},
	}
}

func TestSubmitFullGraph(t *testing.T) {
	svc, db, store := newTestService(t)

	result, err := svc.Submit(context.Background(), fullInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.ArticleID == 0 || result.ExperienceID == 0 || result.DataID == 0 {
		t.Fatalf("expected non-zero ids, got %+v", result)
	}
	if result.MachinesCount != 1 || result.DetectorsCount != 1 || result.PhantomsCount != 1 {
		t.Fatalf("unexpected link counts: %+v", result)
	}

	var article models.Article
	if err := db.First(&article, result.ArticleID).Error; err != nil {
		t.Fatalf("load article: %v", err)
	}
	if article.DOI == nil || *article.DOI != "10.1000/dose-linearity" {
		t.Fatalf("unexpected article DOI: %+v", article)
	}

	var record models.DataRecord
	if err := db.Preload("ColumnMappings").First(&record, result.DataID).Error; err != nil {
		t.Fatalf("load data record: %v", err)
	}
	if record.ExperienceID != result.ExperienceID {
		t.Fatalf("data record bound to wrong experience: %+v", record)
	}
	if record.FileFormat != "csv" {
		t.Fatalf("expected file format csv, got %q", record.FileFormat)
	}
	if record.FilePath != store.Path(result.ExperienceID, "pdd_6mv.csv") {
		t.Fatalf("unexpected file path %q", record.FilePath)
	}
	if !store.Exists(record.FilePath) {
		t.Fatalf("uploaded file missing at %q", record.FilePath)
	}
	if len(record.ColumnMappings) != 2 {
		t.Fatalf("expected 2 column mappings, got %d", len(record.ColumnMappings))
	}

	var linkCount int64
	db.Model(&models.ExperienceMachine{}).Where("experience_id = ?", result.ExperienceID).Count(&linkCount)
	if linkCount != 1 {
		t.Fatalf("expected 1 machine link, got %d", linkCount)
	}
}

func TestSubmitDuplicateDOIConflict(t *testing.T) {
	svc, db, store := newTestService(t)

	if _, err := svc.Submit(context.Background(), fullInput()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	second := fullInput()
	second.FileName = "pdd_6mv_repeat.csv"
	_, err := svc.Submit(context.Background(), second)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate DOI, got %v", err)
	}

	var experiences int64
	db.Model(&models.Experience{}).Count(&experiences)
	if experiences != 1 {
		t.Fatalf("conflicting submission left experience rows: %d", experiences)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("conflicting submission left files behind: %v", files)
	}
}

func TestSubmitDuplicateMachineRollsBack(t *testing.T) {
	svc, db, store := newTestService(t)

	in := fullInput()
	// Dieselbe Maschine zweimal verlinkt: der zusammengesetzte Primärschlüssel
	// schlägt fehl und die gesamte Submission muss zurückgerollt werden.
	in.Machines = append(in.Machines, in.Machines[0])

	_, err := svc.Submit(context.Background(), in)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate machine link, got %v", err)
	}

	var articles, experiences, machines, links, records int64
	db.Model(&models.Article{}).Count(&articles)
	db.Model(&models.Experience{}).Count(&experiences)
	db.Model(&models.Machine{}).Count(&machines)
	db.Model(&models.ExperienceMachine{}).Count(&links)
	db.Model(&models.DataRecord{}).Count(&records)
	if articles != 0 || experiences != 0 || machines != 0 || links != 0 || records != 0 {
		t.Fatalf("rollback left rows behind: articles=%d experiences=%d machines=%d links=%d records=%d",
			articles, experiences, machines, links, records)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("rollback left files behind: %v", files)
	}
}

func TestSubmitCleansUpFileOnLateFailure(t *testing.T) {
	svc, db, store := newTestService(t)

	// Das Staging der Datenzeile schlägt erst fehl, nachdem die Datei
	// bereits geschrieben wurde. Auch dann darf weder eine Zeile noch die
	// Datei übrig bleiben.
	if err := db.Migrator().DropTable(&models.DataRecord{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	if _, err := svc.Submit(context.Background(), fullInput()); err == nil {
		t.Fatalf("expected Submit to fail after file write")
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("late failure left files behind: %v", files)
	}

	var articles, experiences, links int64
	db.Model(&models.Article{}).Count(&articles)
	db.Model(&models.Experience{}).Count(&experiences)
	db.Model(&models.ExperienceMachine{}).Count(&links)
	if articles != 0 || experiences != 0 || links != 0 {
		t.Fatalf("late failure left rows behind: articles=%d experiences=%d links=%d",
			articles, experiences, links)
	}
}

func TestIngestDataCleansUpFileOnLateFailure(t *testing.T) {
	svc, db, store := newTestService(t)

	experience := models.Experience{Description: "PDD measurement"}
	if err := db.Create(&experience).Error; err != nil {
		t.Fatalf("create experience: %v", err)
	}

	// Der Spalten-Insert schlägt erst nach Dateischreiben und
	// DataRecord-Staging fehl.
	if err := db.Migrator().DropTable(&models.ColumnMapping{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := svc.IngestData(context.Background(), experience.ID,
		"pdd.csv", []byte("depth,dose\n"), "PDD", "",
		[]ColumnMappingEntry{{Name: "depth", DataType: "numeric", Unit: "mm"}})
	if err == nil {
		t.Fatalf("expected IngestData to fail after file write")
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("late failure left files behind: %v", files)
	}

	var records int64
	db.Model(&models.DataRecord{}).Count(&records)
	if records != 0 {
		t.Fatalf("late failure left data records behind: %d", records)
	}
}

func TestSubmitFiltersIncompleteColumns(t *testing.T) {
	svc, db, _ := newTestService(t)

	in := fullInput()
	in.Columns = []ColumnMappingEntry{
		{Name: "depth", DataType: "numeric"},
		{Name: "x"}, // kein Datentyp: wird verworfen
	}

	result, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var count int64
	db.Model(&models.ColumnMapping{}).Where("data_id = ?", result.DataID).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 column mapping, got %d", count)
	}
}

func TestSubmitReusesCatalogEntries(t *testing.T) {
	svc, db, _ := newTestService(t)

	if _, err := svc.Submit(context.Background(), fullInput()); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	second := fullInput()
	second.DOI = "10.1000/dose-linearity-2"
	second.FileName = "pdd_6mv_run2.csv"
	if _, err := svc.Submit(context.Background(), second); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	var machines, links int64
	db.Model(&models.Machine{}).Count(&machines)
	db.Model(&models.ExperienceMachine{}).Count(&links)
	if machines != 1 {
		t.Fatalf("expected shared machine row, got %d", machines)
	}
	if links != 2 {
		t.Fatalf("expected 2 machine links, got %d", links)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	in := fullInput()
	in.Title = ""
	if _, err := svc.Submit(context.Background(), in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing title, got %v", err)
	}

	in = fullInput()
	in.DataType = ""
	if _, err := svc.Submit(context.Background(), in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing data_type, got %v", err)
	}
}

func TestDeleteExperienceCascades(t *testing.T) {
	svc, db, _ := newTestService(t)

	result, err := svc.Submit(context.Background(), fullInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := db.Delete(&models.Experience{}, result.ExperienceID).Error; err != nil {
		t.Fatalf("delete experience: %v", err)
	}

	var links, records, columns int64
	db.Model(&models.ExperienceMachine{}).Count(&links)
	db.Model(&models.DataRecord{}).Count(&records)
	db.Model(&models.ColumnMapping{}).Count(&columns)
	if links != 0 || records != 0 || columns != 0 {
		t.Fatalf("cascade incomplete: links=%d records=%d columns=%d", links, records, columns)
	}

	// Katalog und Artikel überleben die Löschung.
	var machines, articles int64
	db.Model(&models.Machine{}).Count(&machines)
	db.Model(&models.Article{}).Count(&articles)
	if machines != 1 || articles != 1 {
		t.Fatalf("catalog or article rows lost: machines=%d articles=%d", machines, articles)
	}
}

func TestIngestDataAppendsToExperience(t *testing.T) {
	svc, db, store := newTestService(t)

	result, err := svc.Submit(context.Background(), fullInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	record, err := svc.IngestData(context.Background(), result.ExperienceID,
		"profile_6mv.csv", []byte("x,dose\n-5,0.5\n"), "Profile", "crossline profile",
		[]ColumnMappingEntry{{Name: "x", DataType: "numeric", Unit: "cm"}})
	if err != nil {
		t.Fatalf("IngestData: %v", err)
	}
	if record.ExperienceID != result.ExperienceID {
		t.Fatalf("data record bound to wrong experience: %+v", record)
	}
	if !store.Exists(record.FilePath) {
		t.Fatalf("uploaded file missing at %q", record.FilePath)
	}

	var records int64
	db.Model(&models.DataRecord{}).Where("experience_id = ?", result.ExperienceID).Count(&records)
	if records != 2 {
		t.Fatalf("expected 2 data records, got %d", records)
	}
}

func TestIngestDataUnknownExperience(t *testing.T) {
	svc, _, store := newTestService(t)

	_, err := svc.IngestData(context.Background(), 9999,
		"profile.csv", []byte("x\n"), "Profile", "",
		nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	files, err := store.List()
	if err != nil {
		t.Fatalf("list uploads: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("failed ingest left files behind: %v", files)
	}
}
