package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/logger"
	"github.com/DonovanMods/mc-mod-manager/internal/storage/config"

	"github.com/spf13/cobra"
)

// ErrCancelled is returned when the user cancels an operation (e.g. prompt declined).
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

var (
	version = "0.4.0"

	// Global flags
	configDir  string
	dataDir    string
	folderName string
	verbose    bool
	jsonOutput bool
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcmm",
	Short: "Minecraft Mod Manager - keep a local mods folder tidy and up to date",
	Long: `mcmm scans a Minecraft mods folder, resolves duplicate files and broken
dependencies, and updates mods from CurseForge and Modrinth.

Use subcommands for operations. Run 'mcmm --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/mcmm)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: ~/.local/share/mcmm)")
	rootCmd.PersistentFlags().StringVarP(&folderName, "folder", "f", "", "managed folder to operate on (default: configured default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format (scan, dupes, check, update, purge)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// colorEnabled returns true if colored output should be used (respects --no-color and NO_COLOR env).
// NO_COLOR: if set (any value), color is disabled per https://no-color.org
func colorEnabled() bool {
	if noColor {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
)

func colorize(code, s string) string {
	if !colorEnabled() {
		return s
	}
	return code + s + ansiReset
}

func colorGreen(s string) string  { return colorize(ansiGreen, s) }
func colorRed(s string) string    { return colorize(ansiRed, s) }
func colorYellow(s string) string { return colorize(ansiYellow, s) }

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = user cancelled.
// When --json is set and an error occurs, prints {"error":"..."} to stdout before exiting.
// Interrupts cancel the command's context so running batches stop cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode reports err and returns the process exit code for it
func exitCode(err error) int {
	if errors.Is(err, ErrCancelled) || errors.Is(err, domain.ErrCancelled) {
		return 2
	}
	if jsonOutput {
		fmt.Printf(`{"error":%q}`+"\n", err.Error())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}

// initService creates and initializes the core service
func initService() (*core.Service, error) {
	cfg, err := getServiceConfig()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	return core.NewService(cfg)
}

// getServiceConfig returns the service configuration with defaults.
// The CurseForge key from CURSEFORGE_API_KEY wins over a stored one.
func getServiceConfig() (core.ServiceConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return core.ServiceConfig{}, fmt.Errorf("home directory: %w", err)
	}

	cfg := core.ServiceConfig{
		ConfigDir:        configDir,
		DataDir:          dataDir,
		CurseForgeAPIKey: os.Getenv("CURSEFORGE_API_KEY"),
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = filepath.Join(homeDir, ".config", "mcmm")
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(homeDir, ".local", "share", "mcmm")
	}
	cfg.CacheDir = filepath.Join(cfg.DataDir, "staging")

	// Logging settings live in the config file; a broken file is reported by NewService
	loggerCfg := logger.Config{Verbose: verbose}
	if appConfig, err := config.Load(cfg.ConfigDir); err == nil {
		loggerCfg.Level = appConfig.LogLevel
		loggerCfg.File = appConfig.LogFile
	}
	log, err := logger.New(loggerCfg)
	if err != nil {
		return core.ServiceConfig{}, fmt.Errorf("creating logger: %w", err)
	}
	cfg.Logger = log

	return cfg, nil
}

// requireFolder resolves --folder (or the configured default) to a validated folder
func requireFolder(svc *core.Service) (domain.Folder, error) {
	folder, err := svc.Folder(folderName)
	if err != nil {
		if folderName == "" {
			return domain.Folder{}, fmt.Errorf("no folder specified; use --folder or -f, or set a default with 'mcmm folder default <name>'")
		}
		return domain.Folder{}, err
	}
	path, err := config.ParseFolderPath(folder.Path)
	if err != nil {
		return domain.Folder{}, err
	}
	folder.Path = path
	if verbose && folderName == "" {
		fmt.Fprintf(os.Stderr, "Using folder: %s (%s)\n", folder.Name, folder.Path)
	}
	return folder, nil
}

func closeService(svc *core.Service) {
	if err := svc.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", err)
	}
}

// withService runs fn against an initialized service and closes it afterwards
func withService(fn func(svc *core.Service) error) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(svc)
	return fn(svc)
}
