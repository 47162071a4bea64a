package models

// ExperienceDetector verknüpft ein Experiment mit einem Detektor und trägt
// die Messposition. Zusammengesetzter Primärschlüssel wie bei den Maschinen.
type ExperienceDetector struct {
	ExperienceID uint `json:"experience_id" gorm:"primaryKey;autoIncrement:false"`
	DetectorID   uint `json:"detector_id" gorm:"primaryKey;autoIncrement:false"`

	Position    string `json:"position,omitempty"`
	Depth       string `json:"depth,omitempty"`
	Orientation string `json:"orientation,omitempty"`

	Detector Detector `json:"-" gorm:"foreignKey:DetectorID"`
}

// TableName gibt explizit den Tabellennamen an.
func (ExperienceDetector) TableName() string {
	return "experience_detectors"
}
