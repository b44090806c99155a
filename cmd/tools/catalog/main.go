package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kapu/sevenlist-go/internal/app"
	"github.com/kapu/sevenlist-go/internal/config"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/service/affiliate"
	"github.com/kapu/sevenlist-go/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0-go"

func main() {
	var (
		logLevel string
		timeout  time.Duration
	)

	// setup loads config and a logger for one command run.
	setup := func() (*config.Config, *zap.Logger, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		logger, err := util.NewLogger(logLevel, "")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return cfg, logger, nil
	}

	rootCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query the 7list catalog and persona services from the terminal",
		Long: `catalog runs the same catalog providers, persona generator and affiliate
link builder as the HTTP server, without Redis or PostgreSQL.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for the command")

	searchCmd := &cobra.Command{
		Use:   "search <movies|books|music> <query...>",
		Short: "Search one catalog category",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := domain.ParseCategory(args[0])
			if err != nil {
				return err
			}
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			router, _, err := app.NewSearchRouter(ctx, cfg, nil, logger)
			if err != nil {
				return err
			}
			outcome := router.Lookup(ctx, strings.Join(args[1:], " "), category)
			if outcome.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", outcome.Status, outcome.Err)
			}
			return printJSON(cmd, map[string]any{
				"status":   outcome.Status,
				"provider": outcome.Provider,
				"results":  outcome.Results,
			})
		},
	}

	var movies, books, music []string
	personaCmd := &cobra.Command{
		Use:   "persona",
		Short: "Generate a persona blurb from shelf titles",
		Example: `  catalog persona --movies "Interestelar,A Chegada" --books Duna --music "Clube da Esquina"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			generator, err := app.NewPersonaGenerator(ctx, cfg, logger)
			if err != nil {
				return err
			}
			res := generator.GenerateFromTitles(ctx, domain.ShelfTitles{Movies: movies, Books: books, Music: music})
			if res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.Status, res.Err)
			}
			return printJSON(cmd, map[string]any{
				"status":    res.Status,
				"generated": res.Generated(),
				"provider":  res.Provider,
				"text":      res.Text,
			})
		},
	}
	personaCmd.Flags().StringSliceVar(&movies, "movies", nil, "movie titles")
	personaCmd.Flags().StringSliceVar(&books, "books", nil, "book titles")
	personaCmd.Flags().StringSliceVar(&music, "music", nil, "album or track titles")

	var subtitle string
	linkCmd := &cobra.Command{
		Use:   "link <movies|books|music> <title...>",
		Short: "Print the affiliate link for a title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := domain.ParseCategory(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			result := domain.SearchResult{Title: strings.Join(args[1:], " "), Subtitle: subtitle, Category: category}
			fmt.Fprintln(cmd.OutOrStdout(), affiliate.NewBuilder(cfg.Affiliate.Tag).BuildLink(result, category))
			return nil
		},
	}
	linkCmd.Flags().StringVar(&subtitle, "subtitle", "", "result subtitle, e.g. \"Frank Herbert • 1965\"")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "catalog v%s\n", version)
		},
	}

	rootCmd.AddCommand(searchCmd, personaCmd, linkCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
