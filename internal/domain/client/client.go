package client

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer of the lab. Test requests keep a copy of its contact fields.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;column:client_name" json:"client_name" validate:"required"`
	ContactNo string    `gorm:"not null;column:contact_no" json:"contact_no" validate:"required"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email" validate:"required,email"`
	Address   string    `gorm:"not null;column:address" json:"address" validate:"required"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Client) TableName() string { return "client" }
