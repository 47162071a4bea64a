package models

// ExperiencePhantom verknüpft ein Experiment mit einem Phantom.
type ExperiencePhantom struct {
	ExperienceID uint `json:"experience_id" gorm:"primaryKey;autoIncrement:false"`
	PhantomID    uint `json:"phantom_id" gorm:"primaryKey;autoIncrement:false"`

	Position    string `json:"position,omitempty"`
	Orientation string `json:"orientation,omitempty"`

	Phantom Phantom `json:"-" gorm:"foreignKey:PhantomID"`
}

// TableName gibt explizit den Tabellennamen an.
func (ExperiencePhantom) TableName() string {
	return "experience_phantoms"
}
