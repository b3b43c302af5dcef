package equipment

import (
	"time"

	"github.com/google/uuid"
)

// Equipment is a calibrated instrument. Reports list the instruments used
// for a sub-test in their equipment table.
type Equipment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"not null;column:equipment_name" json:"equipment_name" validate:"required"`
	Range           string    `gorm:"column:measuring_range" json:"range"`
	CertificateNo   string    `gorm:"column:certificate_no" json:"certificate_no"`
	CalibrationDate string    `gorm:"column:calibration_date" json:"calibration_date" validate:"omitempty,ymd_date"`
	DueDate         string    `gorm:"column:due_date" json:"due_date" validate:"omitempty,ymd_date"`
	CalibratedBy    string    `gorm:"column:calibrated_by" json:"calibrated_by"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Equipment) TableName() string { return "equipment" }

// CalibrationDue reports whether the due date is on or before day (YYYY-MM-DD).
func (e Equipment) CalibrationDue(day string) bool {
	return e.DueDate != "" && e.DueDate <= day
}
