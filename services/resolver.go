package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/paradiselovin/radiotherapy-data-hub/models"
)

// Get-or-create für die geteilten Katalogeinträge. Läuft immer in der
// offenen Transaktion des Aufrufers und committet nie selbst; die generierte
// ID ist nach dem Insert sofort sichtbar.
//
// Verlieren wir das Insert-Rennen gegen eine parallele Submission, meldet
// der Unique-Index einen Duplikatschlüssel — dann gehört die Zeile jetzt
// jemand anderem und ein einmaliger Re-Lookup liefert sie.

// GetOrCreateMachine sucht eine Maschine über (manufacturer, model,
// machine_type) oder legt sie an.
func GetOrCreateMachine(tx *gorm.DB, manufacturer, model, machineType string) (*models.Machine, error) {
	lookup := func() (*models.Machine, error) {
		var m models.Machine
		err := tx.Where("manufacturer = ? AND model = ? AND machine_type = ?",
			manufacturer, model, machineType).First(&m).Error
		if err != nil {
			return nil, err
		}
		return &m, nil
	}

	m, err := lookup()
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.Machine{
		Manufacturer: manufacturer,
		Model:        model,
		MachineType:  machineType,
	}
	if err := tx.Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return lookup()
		}
		return nil, err
	}
	return &created, nil
}

// GetOrCreateDetector sucht einen Detektor über (detector_type, model,
// manufacturer) oder legt ihn an.
func GetOrCreateDetector(tx *gorm.DB, detectorType, model, manufacturer string) (*models.Detector, error) {
	lookup := func() (*models.Detector, error) {
		var d models.Detector
		err := tx.Where("detector_type = ? AND model = ? AND manufacturer = ?",
			detectorType, model, manufacturer).First(&d).Error
		if err != nil {
			return nil, err
		}
		return &d, nil
	}

	d, err := lookup()
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.Detector{
		DetectorType: detectorType,
		Model:        model,
		Manufacturer: manufacturer,
	}
	if err := tx.Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return lookup()
		}
		return nil, err
	}
	return &created, nil
}

// GetOrCreatePhantom sucht ein Phantom nur über (name, phantom_type).
// Dimensions und Material gehören bewusst nicht zum Schlüssel und werden auf
// einer vorhandenen Zeile nie überschrieben.
func GetOrCreatePhantom(tx *gorm.DB, name, phantomType, dimensions, material string) (*models.Phantom, error) {
	lookup := func() (*models.Phantom, error) {
		var p models.Phantom
		err := tx.Where("name = ? AND phantom_type = ?", name, phantomType).First(&p).Error
		if err != nil {
			return nil, err
		}
		return &p, nil
	}

	p, err := lookup()
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.Phantom{
		Name:        name,
		PhantomType: phantomType,
		Dimensions:  dimensions,
		Material:    material,
	}
	if err := tx.Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return lookup()
		}
		return nil, err
	}
	return &created, nil
}
