package models

import "time"

type DocumentState string

const (
	StateUploaded DocumentState = "UPLOADED"
	StateAnalyzed DocumentState = "ANALYZED"
	StateSigned   DocumentState = "SIGNED"
)

// Document is the metadata row for one stored file. Signature and SignedAt are
// always written together.
type Document struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	OwnerID    uint       `json:"ownerId" gorm:"index;not null"`
	Filename   string     `json:"filename" gorm:"not null"`
	UploadedAt time.Time  `json:"uploadDate" gorm:"column:upload_date;not null"`
	Analysis   *string    `json:"analysis" gorm:"type:text"`
	Signature  *string    `json:"signature" gorm:"type:text"`
	SignedAt   *time.Time `json:"signedDate" gorm:"column:signed_date"`
}

// State derives the lifecycle state from the nullable columns.
func (d *Document) State() DocumentState {
	switch {
	case d.Signature != nil:
		return StateSigned
	case d.Analysis != nil:
		return StateAnalyzed
	default:
		return StateUploaded
	}
}
