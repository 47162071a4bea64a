package models

import (
	"time"
)

// Article repräsentiert die Publikation, aus der Experimente stammen.
type Article struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title   string `json:"title" gorm:"not null"`
	Authors string `json:"authors,omitempty"`
	// DOI ist optional, aber global eindeutig, wenn gesetzt (NULL statt '' damit
	// mehrere Artikel ohne DOI den Unique-Index nicht verletzen).
	DOI *string `json:"doi,omitempty" gorm:"column:doi;uniqueIndex;size:512"`

	Experiences []Experience `json:"-" gorm:"foreignKey:ArticleID"`
}

// TableName gibt explizit den Tabellennamen an.
func (Article) TableName() string {
	return "articles"
}
