package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/labflow-backend/internal/app"
	"github.com/yungbote/labflow-backend/internal/data/db"
	"github.com/yungbote/labflow-backend/internal/data/repos"
	"github.com/yungbote/labflow-backend/internal/domain/user"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
	"github.com/yungbote/labflow-backend/internal/services"
)

func main() {
	var in services.NewUser
	var role string
	flag.StringVar(&in.FirstName, "first", "", "first name")
	flag.StringVar(&in.LastName, "last", "", "last name")
	flag.StringVar(&in.Email, "email", "", "email address")
	flag.StringVar(&in.Username, "username", "", "login name")
	flag.StringVar(&in.Password, "password", "", "initial password")
	flag.StringVar(&role, "role", "super_admin", "role name")
	flag.Parse()

	r, ok := user.ParseRole(strings.TrimSpace(role))
	if !ok {
		fmt.Printf("unknown role %q\n", role)
		os.Exit(2)
	}
	in.Role = r

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	app.LoadEnv(log)
	cfg := app.LoadConfig(log)

	dbService, err := db.NewService(log, cfg.DB)
	if err != nil {
		fmt.Printf("init database: %v\n", err)
		os.Exit(1)
	}
	defer dbService.Close()
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		fmt.Printf("automigrate: %v\n", err)
		os.Exit(1)
	}

	users := services.NewUserService(log, repos.NewUserRepo(dbService.DB(), log))
	u, err := users.Create(context.Background(), in)
	if err != nil {
		fmt.Printf("create user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created %s (%s) id=%s\n", u.Username, u.Role.String(), u.ID)
}
