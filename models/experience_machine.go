package models

// ExperienceMachine verknüpft ein Experiment mit einer Maschine und trägt die
// einsatzspezifischen Parameter. Der zusammengesetzte Primärschlüssel erlaubt
// höchstens einen Link pro (experience, machine)-Paar.
type ExperienceMachine struct {
	ExperienceID uint `json:"experience_id" gorm:"primaryKey;autoIncrement:false"`
	MachineID    uint `json:"machine_id" gorm:"primaryKey;autoIncrement:false"`

	Energy      string `json:"energy,omitempty"`
	Collimation string `json:"collimation,omitempty"`
	Settings    string `json:"settings,omitempty"`

	Machine Machine `json:"-" gorm:"foreignKey:MachineID"`
}

// TableName gibt explizit den Tabellennamen an.
func (ExperienceMachine) TableName() string {
	return "experience_machines"
}
