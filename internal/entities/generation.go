package entities

import "time"

// Generation records one successfully generated EPUB artifact.
type Generation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ISBN      string    `gorm:"index;size:20" json:"isbn"`
	Title     string    `gorm:"size:500" json:"title"`
	Author    string    `gorm:"size:500" json:"author"`
	Publisher string    `gorm:"size:500" json:"publisher"`
	Source    string    `gorm:"size:200" json:"source"`
	Filename  string    `gorm:"size:500" json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}
