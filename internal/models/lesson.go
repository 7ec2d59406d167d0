package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lesson is the source material homework gets generated from. Keywords and
// Topics are extracted from Content when the lesson is created or updated.
type Lesson struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Title     string         `json:"title" gorm:"size:255;not null"`
	Subject   string         `json:"subject" gorm:"size:100;not null;index"`
	Grade     int            `json:"grade" gorm:"not null;index"` // 6..11
	Unit      string         `json:"unit" gorm:"size:255"`
	Content   string         `json:"content" gorm:"type:text;not null"`
	Keywords  datatypes.JSON `json:"keywords" gorm:"type:jsonb"` // []string, ranked
	Topics    datatypes.JSON `json:"topics" gorm:"type:jsonb"`   // []string, deduplicated
	CreatedBy string         `json:"created_by" gorm:"size:255;not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Creator *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

func (Lesson) TableName() string {
	return "lessons"
}

func (l *Lesson) KeywordList() []string {
	return decodeStringList(l.Keywords)
}

func (l *Lesson) TopicList() []string {
	return decodeStringList(l.Topics)
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}
