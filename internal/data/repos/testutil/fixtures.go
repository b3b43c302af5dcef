package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	types "github.com/yungbote/labflow-backend/internal/domain"
	"github.com/yungbote/labflow-backend/internal/domain/labtest"
	"github.com/yungbote/labflow-backend/internal/domain/user"
)

func SeedClient(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Client {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Client{
		ID:        uuid.New(),
		Name:      "Builder Co",
		ContactNo: "9876543210",
		Email:     email,
		Address:   "Plot 4, Ring Road",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed client: %v", err)
	}
	return c
}

// SeedUser stores a user whose password is password.
func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username, password string, role user.Role) *types.User {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	u := &types.User{
		ID:        uuid.New(),
		Email:     username + "@lab.test",
		Username:  username,
		Password:  string(hash),
		FirstName: "A",
		LastName:  "B",
		Role:      role,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// Draft is a two-department request: cement for chemical, steel for mechanical.
func Draft(clientID uuid.UUID) *labtest.TestRequest {
	return &labtest.TestRequest{
		ClientID:    clientID,
		ContactNo:   "9876543210",
		Email:       "site@builder.test",
		Address:     "Plot 4, Ring Road",
		RequestDate: "2024-05-02",
		SubTests: []labtest.SubTest{
			{
				AtlID: "ATL/24/05/1", Material: "Cement", MaterialID: "C-1", Date: "2024-05-02",
				Quantity: "2 bags", TestType: "CHEMICAL",
				Measurements: []labtest.Measurement{{Name: "Loss on ignition", Standard: "IS 4032"}},
			},
			{
				AtlID: "ATL/24/05/2", Material: "Steel", MaterialID: "S-1", Date: "2024-05-02",
				Quantity: "3 rods", TestType: "MECHANICAL-NDT",
				Measurements: []labtest.Measurement{{Name: "Tensile strength", Standard: "IS 1608"}},
			},
		},
	}
}
