package scope

import (
	"time"

	"github.com/google/uuid"
)

// Scope is one line of the lab's NABL accreditation scope.
type Scope struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SerialNo       int       `gorm:"uniqueIndex;not null;column:s_no" json:"s_no" yaml:"s_no" validate:"required,gt=0"`
	Group          string    `gorm:"column:scope_group" json:"group" yaml:"group"`
	MainGroup      string    `gorm:"column:main_group" json:"main_group" yaml:"main_group"`
	SubGroup       string    `gorm:"column:sub_group" json:"sub_group" yaml:"sub_group"`
	MaterialTested string    `gorm:"not null;column:material_tested" json:"material_tested" yaml:"material_tested" validate:"required"`
	Parameters     string    `gorm:"column:parameters;type:text" json:"parameters" yaml:"parameters"`
	TestMethod     string    `gorm:"column:test_method" json:"test_method" yaml:"test_method"`

	CreatedAt time.Time `gorm:"not null" json:"created_at" yaml:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at" yaml:"-"`
}

func (Scope) TableName() string { return "test_nabl_scope" }
