package models

import (
	"time"
)

// Detector ist ein geteilter Katalogeintrag für einen Messdetektor.
// Identität: (detector_type, model, manufacturer).
type Detector struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	DetectorType string `json:"detector_type" gorm:"index:idx_detectors_identity,unique;size:256;default:''"`
	Model        string `json:"model" gorm:"index:idx_detectors_identity,unique;size:256;default:''"`
	Manufacturer string `json:"manufacturer" gorm:"index:idx_detectors_identity,unique;size:256;default:''"`
}

// TableName gibt explizit den Tabellennamen an.
func (Detector) TableName() string {
	return "detectors"
}
