package models

import (
	"time"
)

// DataRecord beschreibt eine hochgeladene Messdatei eines Experiments.
// Invariante: file_path existiert auf der Platte genau dann, wenn die Zeile
// committed ist — der Submission-Coordinator hält das aufrecht.
type DataRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExperienceID uint   `json:"experience_id" gorm:"not null;index"`
	DataType     string `json:"data_type" gorm:"not null"`
	FileFormat   string `json:"file_format,omitempty"`
	FilePath     string `json:"file_path" gorm:"not null"`
	Description  string `json:"description,omitempty" gorm:"type:text"`

	ColumnMappings []ColumnMapping `json:"column_mappings,omitempty" gorm:"foreignKey:DataID;constraint:OnDelete:CASCADE"`
}

// TableName gibt explizit den Tabellennamen an.
func (DataRecord) TableName() string {
	return "data_records"
}
