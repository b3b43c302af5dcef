package user

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role int

const (
	RoleSuperAdmin Role = iota
	RoleChemicalSectionHead
	RoleMechanicalSectionHead
	RoleReceptionist
	RoleMechanicalTester
	RoleChemicalTester
)

var roleNames = map[Role]string{
	RoleSuperAdmin:            "Super Admin",
	RoleChemicalSectionHead:   "Chemical Section Head",
	RoleMechanicalSectionHead: "Mechanical Section Head",
	RoleReceptionist:          "Receptionist",
	RoleMechanicalTester:      "Mechanical Tester",
	RoleChemicalTester:        "Chemical Tester",
}

// ParseRole accepts a role's display name in any case, with spaces or
// underscores ("super_admin"), or its number ("3").
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		r := Role(n)
		return r, r.Valid()
	}
	norm := strings.ToLower(strings.ReplaceAll(s, "_", " "))
	for r, name := range roleNames {
		if strings.ToLower(name) == norm {
			return r, true
		}
	}
	return 0, false
}

func (r Role) Valid() bool { _, ok := roleNames[r]; return ok }

func (r Role) String() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "Unknown"
}

// Department returns the lab department a section head or tester belongs to.
func (r Role) Department() string {
	switch r {
	case RoleChemicalSectionHead, RoleChemicalTester:
		return "chemical"
	case RoleMechanicalSectionHead, RoleMechanicalTester:
		return "mechanical"
	default:
		return ""
	}
}

func (r Role) IsSectionHead() bool {
	return r == RoleChemicalSectionHead || r == RoleMechanicalSectionHead
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FirstName string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName  string    `gorm:"not null;column:last_name" json:"last_name"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Username  string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Password  string    `gorm:"not null;column:password" json:"-"`
	Role      Role      `gorm:"not null;column:role" json:"role"`

	// ResetOTPHash is the bcrypt hash of the pending password-reset code.
	ResetOTPHash   string     `gorm:"column:reset_otp" json:"-"`
	ResetOTPExpiry *time.Time `gorm:"column:reset_otp_expiry" json:"-"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
