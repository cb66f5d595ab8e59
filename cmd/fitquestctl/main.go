package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"fitquest/internal/config"
	"fitquest/internal/db"
	"fitquest/internal/logger"
	"fitquest/internal/migrations"
	"fitquest/internal/repository"
	"fitquest/internal/scheduler"
	"fitquest/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "fitquestctl",
	Short:         "Operator tooling for the FitQuest reward engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadOptional()
		logger.Init(cfg.LogLevel, cfg.LogJSON)
	},
}

func main() {
	rootCmd.AddCommand(migrateCmd(), levelsCmd(), sweepCmd(), createUserCmd())
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func connect() (*pgxpool.Pool, error) {
	cfg := config.LoadOptional()
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	return db.Connect(cfg.DatabaseURL), nil
}

func migrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				names, err := migrations.Names()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Println(n)
				}
				return nil
			}

			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.Apply(cmd.Context(), pool)
			if err != nil {
				return err
			}
			for _, n := range applied {
				fmt.Printf("applied %s\n", n)
			}
			if len(applied) == 0 {
				fmt.Println("nothing to apply")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list migrations without connecting")
	return cmd
}

func levelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "Print and validate the level table",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			table, err := service.LoadLevelTable(cmd.Context(), repository.NewLevelRepository(pool))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LEVEL\tXP REQUIRED\tREWARD TOKENS")
			for _, l := range table.Levels() {
				fmt.Fprintf(w, "%d\t%d\t%d\n", l.Level, l.XPRequired, l.RewardTokens)
			}
			return w.Flush()
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Downgrade expired premium users and purge old quest rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadOptional()
			eco, err := config.LoadEconomy(cfg.EconomyFile)
			if err != nil {
				return err
			}
			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			now := service.SystemClock(cfg.Timezone)
			premium := service.NewPremiumService(repository.NewSubscriptionRepository(pool),
				repository.NewUserRepository(pool), nil, nil, now, eco.Plans)
			quests := service.NewQuestService(repository.NewQuestRepository(pool), nil, nil, now)

			sweeper, err := scheduler.NewSweeper(premium, quests, cfg.SweepInterval, eco.QuestRetentionDays)
			if err != nil {
				return err
			}
			defer sweeper.Shutdown()
			sweeper.RunOnce(cmd.Context())
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var printToken bool
	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user, optionally printing a dev JWT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect()
			if err != nil {
				return err
			}
			defer pool.Close()

			u, err := repository.NewUserRepository(pool).CreateUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("created user id=%d username=%s\n", u.ID, u.Username)

			if printToken {
				cfg := config.LoadOptional()
				if cfg.JWTSecret == "" {
					return fmt.Errorf("JWT_SECRET not set")
				}
				service.InitJWT(cfg.JWTSecret)
				token, err := service.GenerateJWT(u.ID)
				if err != nil {
					return err
				}
				fmt.Println(token)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&printToken, "token", false, "print a JWT for the new user")
	return cmd
}
