package models

import (
	"time"
)

// Machine ist ein geteilter Katalogeintrag für ein Bestrahlungsgerät.
// Identität: (manufacturer, model, machine_type). Leere Strings statt NULL,
// damit der Unique-Index auch unvollständige Beschreibungen de-dupliziert.
type Machine struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Manufacturer string `json:"manufacturer" gorm:"index:idx_machines_identity,unique;size:256;default:''"`
	Model        string `json:"model" gorm:"index:idx_machines_identity,unique;size:256;default:''"`
	MachineType  string `json:"machine_type" gorm:"index:idx_machines_identity,unique;size:256;default:''"`
}

// TableName gibt explizit den Tabellennamen an.
func (Machine) TableName() string {
	return "machines"
}
