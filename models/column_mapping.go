package models

// ColumnMapping beschreibt eine Spalte innerhalb einer Messdatei,
// z.B. "depth" in mm oder "dose" in Gy.
type ColumnMapping struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	DataID uint `json:"data_id" gorm:"not null;index"`

	ColumnName        string `json:"column_name" gorm:"not null"`
	ColumnDescription string `json:"column_description,omitempty"`
	// numeric, categorical, text oder datetime
	DataType string `json:"data_type" gorm:"not null"`
	Unit     string `json:"unit,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (ColumnMapping) TableName() string {
	return "column_mappings"
}
