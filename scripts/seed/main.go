// Seed creates a demo account with a spread of tasks, including a few the next sweep will pick up.
// Run from project root: go run ./scripts/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"task-manager/internal/config"
	"task-manager/internal/database"
	"task-manager/internal/errs"
	"task-manager/internal/models"
	"task-manager/internal/repository/postgres"
	"task-manager/internal/service"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demo-password"
	total        = 200
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Get()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set or DB connection failed:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	accountRepo := postgres.NewAccountRepo(db)
	accounts := service.NewAuthService(accountRepo, []byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	tasks := service.NewTaskService(postgres.NewTaskRepo(db), nil)

	acct, err := accounts.Register(ctx, service.RegisterInput{Name: "Demo", Email: demoEmail, Password: demoPassword})
	if errors.Is(err, errs.ErrConflict) {
		acct, err = accountRepo.GetByEmail(ctx, demoEmail)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Demo account failed:", err)
		os.Exit(1)
	}

	start := time.Now()
	created := 0
	for n := 1; n <= total; n++ {
		var due *time.Time
		switch n % 4 {
		case 1:
			// inside the next sweep window
			d := start.Add(-time.Duration(n%50+1) * time.Minute)
			due = &d
		case 2:
			d := start.Add(time.Duration(n) * time.Hour)
			due = &d
		}
		t, err := tasks.Create(ctx, acct.ID, fmt.Sprintf("Demo task %d", n), due)
		if errors.Is(err, errs.ErrConflict) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Insert failed:", err)
			os.Exit(1)
		}
		if n%7 == 0 {
			if _, err := tasks.PatchStatus(ctx, acct.ID, t.ID, string(models.StatusCompleted)); err != nil {
				fmt.Fprintln(os.Stderr, "Status update failed:", err)
				os.Exit(1)
			}
		}
		created++
		fmt.Printf("\rInserted %d / %d", n, total)
	}

	fmt.Printf("\nDone: %d tasks for %s in %v\n", created, demoEmail, time.Since(start))
}
