package cli

import (
	"context"
	"fmt"
	"log"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/config"
	"formbuilder-service/internal/domain"
	infrapg "formbuilder-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

const (
	sampleUserEmail    = "admin@example.com"
	sampleUserPassword = "password"
)

// NewSeedCmd loads the sample user and forms into Postgres. Handy for local
// demos and smoke tests against a fresh database.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed sample forms into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg); err != nil {
				return err
			}

			pool, err := pgxpool.Connect(cmd.Context(), cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := seedSampleData(cmd.Context(), infrapg.NewFormStore(pool), infrapg.NewUserStore(pool)); err != nil {
				return err
			}
			log.Printf("sample data seeded (login %s)", sampleUserEmail)
			return nil
		},
	}
}

// seedSampleData creates the demo user and forms through the regular authoring
// path, so the one-correct-alternative invariant applies to it too.
func seedSampleData(ctx context.Context, forms app.FormRepository, users app.UserRepository) error {
	hash, err := app.HashPassword(sampleUserPassword)
	if err != nil {
		return err
	}
	user := domain.User{Name: "Admin", Email: sampleUserEmail, PasswordHash: hash}
	if err := users.CreateUser(ctx, &user); err != nil {
		return err
	}

	for _, form := range sampleForms(user.ID) {
		form := form
		if err := forms.CreateForm(ctx, &form); err != nil {
			return err
		}
	}
	return nil
}

func sampleForms(ownerID int64) []domain.Form {
	return []domain.Form{
		{
			Title:       "General knowledge",
			Description: "A short warm-up quiz",
			Status:      domain.StatusActive,
			UserID:      ownerID,
			Questions: []domain.Question{
				{
					Text: "What is 2 + 2?",
					Alternatives: []domain.Alternative{
						{Text: "3"},
						{Text: "4", IsCorrect: true},
						{Text: "5"},
					},
				},
				{
					Text: "Which planet is closest to the sun?",
					Alternatives: []domain.Alternative{
						{Text: "Mercury", IsCorrect: true},
						{Text: "Venus"},
						{Text: "Mars"},
					},
				},
			},
		},
		{
			Title:       "Archived survey",
			Description: "No longer accepting responses",
			Status:      domain.StatusInactive,
			UserID:      ownerID,
			Questions: []domain.Question{
				{
					Text: "Was this survey useful?",
					Alternatives: []domain.Alternative{
						{Text: "Yes", IsCorrect: true},
						{Text: "No"},
					},
				},
			},
		},
	}
}
