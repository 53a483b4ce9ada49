package domain

import "time"

// Document is a raw data file stored in the SQL backend.
// Key follows the same layout as files on disk, e.g. "en/gpt4o.json".
type Document struct {
	Key         string    `gorm:"type:text;primaryKey" json:"key"`
	Locale      string    `gorm:"type:text;index:idx_prompt_documents_locale" json:"locale"`
	Body        []byte    `gorm:"not null" json:"-"`
	ContentType string    `gorm:"type:text" json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Document.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Document) TableName() string {
	return "prompt_documents"
}
