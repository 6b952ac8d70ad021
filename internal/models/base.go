package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel replaces gorm.Model with sortable string identifiers so the same
// structs can be stored in SQL tables and Mongo collections.
type BaseModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(26)" bson:"_id"`
	CreatedAt time.Time `gorm:"index" bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewID() string {
	return ulid.Make().String()
}

// Prepare assigns an identifier and timestamps to a record that is about to be inserted.
func (b *BaseModel) Prepare(now time.Time) {
	if b.ID == "" {
		b.ID = NewID()
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}

	b.UpdatedAt = now
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	b.Prepare(time.Now().UTC())
	return nil
}
