package models

import (
	"time"
)

// Phantom ist ein geteilter Katalogeintrag für ein Messphantom.
// Identität: nur (name, phantom_type) — zwei Phantome mit gleichem Namen und
// Typ, aber anderen Maßen/Material gelten als derselbe Katalogeintrag.
type Phantom struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `json:"name" gorm:"index:idx_phantoms_identity,unique;size:256;default:''"`
	PhantomType string `json:"phantom_type" gorm:"index:idx_phantoms_identity,unique;size:256;default:''"`
	Dimensions  string `json:"dimensions,omitempty"`
	Material    string `json:"material,omitempty"`
}

// TableName gibt explizit den Tabellennamen an.
func (Phantom) TableName() string {
	return "phantoms"
}
