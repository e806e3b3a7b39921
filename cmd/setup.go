package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sljesus/winm/integrations/postgres"
)

var setupDBURL string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the database schema and seed system categories",
	Long: `Creates the winm tables and indexes if they do not exist and seeds
the built-in category list. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stdout)
		log.SetFlags(log.Ltime | log.Lmsgprefix)

		if setupDBURL == "" {
			setupDBURL = os.Getenv("DATABASE_URL")
			if setupDBURL == "" {
				log.Fatal("error: --db-url or DATABASE_URL environment variable is required")
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		log.Println("Connecting to database...")
		db, err := postgres.Connect(ctx, setupDBURL)
		if err != nil {
			log.Fatalf("error: database connection failed: %v", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatalf("error: schema creation failed: %v", err)
		}
		log.Println("Database schema ready")

		seeded, err := db.SeedSystemCategories(ctx)
		if err != nil {
			log.Fatalf("error: category seed failed: %v", err)
		}

		fmt.Printf("Setup complete: %d categories seeded\n", seeded)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().StringVar(&setupDBURL, "db-url", "", "PostgreSQL connection URL (or set DATABASE_URL env)")
}
