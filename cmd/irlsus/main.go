package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/irlsus/internal/app"
	"github.com/abrezinsky/irlsus/internal/auth"
	"github.com/abrezinsky/irlsus/internal/browser"
	"github.com/abrezinsky/irlsus/internal/config"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/repository"
	"github.com/abrezinsky/irlsus/internal/services"
	"github.com/abrezinsky/irlsus/web"
)

var version = "dev"

// ANSI escape codes
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	flagPort          int
	flagDBPath        string
	flagAdminPassword string
	flagLogLevel      string
	flagLogFormat     string
	flagBaseURL       string
	flagSweepInterval time.Duration
	flagMaxGames      int
	flagTasks         string
	flagOpen          bool
	flagNoBanner      bool
	flagHistoryLimit  int
)

var rootCmd = &cobra.Command{
	Use:   "irlsus",
	Short: "In-person social deduction game server",
	Long: `irlsus runs the game server for an in-person social deduction party game.
Players join from their phones by code or QR; the server deals roles, tracks
tasks, meetings and sabotages, and keeps a history of finished games.

Environment variables (IRLSUS_PORT, IRLSUS_DB, IRLSUS_ADMIN_PASSWORD,
IRLSUS_LOG_LEVEL, IRLSUS_LOG_FORMAT, IRLSUS_BASE_URL, IRLSUS_SWEEP_INTERVAL,
IRLSUS_MAX_GAMES, IRLSUS_TASKS) set defaults; flags override them.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server (default)",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "irlsus %s\n", version)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recently finished games",
	RunE:  runHistory,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagDBPath, "db", "", "SQLite database path (default \"irlsus.db\")")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&flagLogFormat, "log-format", "", "log format: text or json")

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		f := cmd.Flags()
		f.IntVar(&flagPort, "port", 0, "HTTP server port (default 8080)")
		f.StringVar(&flagAdminPassword, "admin-password", "", "admin password (generated if not set)")
		f.StringVar(&flagBaseURL, "base-url", "", "public URL for join links and QR codes (LAN address if not set)")
		f.DurationVar(&flagSweepInterval, "sweep-interval", 0, "check meeting and sabotage deadlines in the background this often (0 disables)")
		f.IntVar(&flagMaxGames, "max-games", 0, "maximum live games (default 200)")
		f.StringVar(&flagTasks, "tasks", "", "comma-separated default task list for new lobbies")
		f.BoolVar(&flagOpen, "open", false, "open the landing page in a browser on startup")
		f.BoolVar(&flagNoBanner, "nobanner", false, "skip the startup banner")
	}

	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", services.DefaultHistoryLimit, "number of games to show")

	rootCmd.AddCommand(serveCmd, versionCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the environment, then applies any flags that were set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Port = flagPort
	}
	if changed("db") {
		cfg.DBPath = flagDBPath
	}
	if changed("admin-password") {
		cfg.AdminPassword = flagAdminPassword
	}
	if changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if changed("base-url") {
		cfg.BaseURL = flagBaseURL
	}
	if changed("sweep-interval") {
		cfg.SweepInterval = flagSweepInterval
	}
	if changed("max-games") {
		cfg.MaxGames = flagMaxGames
	}
	if changed("tasks") {
		cfg.DefaultTasks = config.SplitTasks(flagTasks)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !flagNoBanner {
		showBanner()
	}

	password := cfg.AdminPassword
	if password == "" {
		password = auth.GeneratePassword()
	}
	adminAuth := auth.New(password)

	appLog := logger.NewWithFormat(logger.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	a, err := app.New(appLog, cfg, web.GetStaticFS(), adminAuth)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	appLog.Info("Admin password", "password", password)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagOpen {
		go func() {
			time.Sleep(200 * time.Millisecond)
			localURL := fmt.Sprintf("http://localhost:%d/", cfg.Port)
			if err := browser.Open(localURL); err != nil {
				appLog.Warn("Failed to open browser", "url", localURL, "error", err)
			}
		}()
	}

	return a.Run(ctx)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = flagDBPath
	}

	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	history := services.NewHistoryService(logger.Discard(), repo)
	games, err := history.ListRecent(cmd.Context(), flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No finished games yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENDED\tCODE\tPLAYERS\tWINNER\tREASON")
	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			g.EndedAt.Local().Format("2006-01-02 15:04"), g.Code, g.PlayerCount, g.Winner, g.Reason)
	}
	return w.Flush()
}

func showBanner() {
	logo := []string{
		` ___ ___ _    ___ _   _ ___ `,
		`|_ _| _ \ |  / __| | | / __|`,
		` | ||   / |__\__ \ |_| \__ \`,
		`|___|_|_\____|___/\___/|___/`,
	}
	fmt.Println()
	for _, line := range logo {
		fmt.Printf("  %s%s%s%s\n", bold, red, line, reset)
	}
	fmt.Printf("  %sthere is an impostor among us%s  %s%s%s\n\n", cyan, reset, yellow, version, reset)
}
