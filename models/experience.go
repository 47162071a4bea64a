package models

import (
	"time"
)

// Experience repräsentiert ein einzelnes Dosimetrie-Experiment.
// Löschen einer Experience kaskadiert auf alle Link- und Datenzeilen.
type Experience struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Description string `json:"description" gorm:"type:text;not null"`
	ArticleID   *uint  `json:"article_id,omitempty" gorm:"index"`

	Machines    []ExperienceMachine  `json:"-" gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE"`
	Detectors   []ExperienceDetector `json:"-" gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE"`
	Phantoms    []ExperiencePhantom  `json:"-" gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE"`
	DataRecords []DataRecord         `json:"-" gorm:"foreignKey:ExperienceID;constraint:OnDelete:CASCADE"`
}

// TableName gibt explizit den Tabellennamen an.
func (Experience) TableName() string {
	return "experiences"
}
