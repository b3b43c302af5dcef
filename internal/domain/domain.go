package domain

import (
	"github.com/yungbote/labflow-backend/internal/domain/client"
	"github.com/yungbote/labflow-backend/internal/domain/equipment"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/domain/scope"
	"github.com/yungbote/labflow-backend/internal/domain/sequence"
	"github.com/yungbote/labflow-backend/internal/domain/user"
)

type (
	TestRequest = labtest.TestRequest
	SubTest     = labtest.SubTest
	JobCard     = labtest.JobCard
	Document    = labtest.Document
	Status      = labtest.Status
	Department  = labtest.Department

	Client  = client.Client
	User    = user.User
	Role    = user.Role
	Counter = sequence.Counter

	Equipment = equipment.Equipment
	Scope     = scope.Scope
)

// Models lists every table the service migrates.
func Models() []any {
	return []any{
		&Client{},
		&User{},
		&Counter{},
		&TestRequest{},
		&Equipment{},
		&Scope{},
	}
}
