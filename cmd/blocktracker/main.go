// Package main provides the command line entrypoint for the blocktracker engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/blocktracker-engine/internal/app"
	"github.com/comitanigiacomo/blocktracker-engine/internal/config"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/badges"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/services"
)

var (
	configPath string

	statsJSON bool

	badgesCategory     string
	badgesUnlockedOnly bool

	exportOutput string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "blocktracker",
		Short:         "Bouldering session log with scores, statistics and badges",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the TOML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newBadgesCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newTokenCmd())

	return rootCmd
}

// withApp loads the configuration, opens the store and closes it once fn returns.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to close store: %v\n", cerr)
		}
	}()

	return fn(ctx, a)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show all-time statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsJSON, "json", false, "print the raw statistics as JSON")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		stats, err := a.Stats.GlobalStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			return writeJSON(out, stats)
		}
		printStats(out, stats)
		return nil
	})
}

func printStats(out io.Writer, s *domain.GlobalStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Sessions\t%d\n", s.TotalSessions)
	fmt.Fprintf(w, "Blocs per session\t%d\n", s.AverageBlocsPerSession)
	fmt.Fprintf(w, "Completed blocs\t%d\n", s.TotalCompletedBlocs)
	fmt.Fprintf(w, "Flash blocs\t%d\n", s.TotalFlashBlocs)
	fmt.Fprintf(w, "Success rate\t%.1f%%\n", s.GlobalSuccessRate)
	fmt.Fprintf(w, "Average score\t%.1f\n", s.GlobalAverageScore)
	fmt.Fprintf(w, "Average level\t%.2f\n", s.GlobalAverageLevel)
	fmt.Fprintf(w, "Max level\t%d\n", s.MaxLevelCompleted)
	fmt.Fprintf(w, "Overhang ratio\t%.2f\n", s.OverhangRatio)
	fmt.Fprintf(w, "Completed levels\t%v\n", s.CompletedLevels.Sorted())
	_ = w.Flush()
}

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions with their summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				list, err := a.Sessions.List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list sessions: %w", err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSTART\tDURATION\tBLOCS\tDONE\tSCORE")
				for _, s := range list {
					sum := s.Summary()
					duration := "in progress"
					if !s.IsActive() {
						duration = sum.Duration.String()
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\n",
						s.ID, s.StartDate.Format("2006-01-02 15:04"), duration,
						sum.BlocCount, sum.CompletedBlocCount, sum.TotalScore)
				}
				return w.Flush()
			})
		},
	}
}

func newBadgesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "List badges and their unlock state",
		Args:  cobra.NoArgs,
		RunE:  runBadgesCmd,
	}
	cmd.Flags().StringVar(&badgesCategory, "category", "", "only show one category (sessions, blocs, performance, special)")
	cmd.Flags().BoolVar(&badgesUnlockedOnly, "unlocked", false, "only show unlocked badges")
	return cmd
}

func runBadgesCmd(cmd *cobra.Command, _ []string) error {
	var category badges.Category
	if badgesCategory != "" {
		c, err := badges.ParseCategory(badgesCategory)
		if err != nil {
			return err
		}
		category = c
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		list, err := a.Badges.List(ctx, category)
		if err != nil {
			return fmt.Errorf("failed to list badges: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, b := range list {
			if badgesUnlockedOnly && !b.Unlocked {
				continue
			}
			mark, when := " ", ""
			if b.Unlocked {
				mark = "x"
				if b.UnlockedAt != nil {
					when = b.UnlockedAt.Local().Format("2006-01-02")
				}
			}
			fmt.Fprintf(w, "[%s]\t%s\t%s\t%s\t%s\n", mark, b.ID, b.Name, b.Description, when)
		}
		return w.Flush()
	})
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of every session and unlocked badge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				data, err := a.Transfer.ExportJSON(ctx)
				if err != nil {
					return err
				}

				if exportOutput == "" || exportOutput == "-" {
					_, err := cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
					return fmt.Errorf("%w: %w", domain.ErrFileAccess, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", exportOutput)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrFileAccess, err)
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Transfer.Import(ctx, data)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "imported %d sessions: %d badges unlocked, %d revoked\n",
					result.Stats.TotalSessions, len(result.Unlocked), len(result.Revoked))
				return nil
			})
		},
	}
}

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.JWTSecret == "" {
				return config.ErrMissingSecret
			}

			token, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL).GenerateToken()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
