package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/source/curseforge"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// supportedSources lists the catalogs that accept an API key
var supportedSources = []domain.SourceSite{domain.SiteCurseforge, domain.SiteModrinth}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API keys for mod catalogs",
	Long: `Manage API keys for CurseForge and Modrinth.

CurseForge requires a key for every request. Modrinth works without one;
a personal access token only raises its rate limits.

Use 'mcmm auth login' to store a key.
Use 'mcmm auth logout' to remove a stored key.
Use 'mcmm auth status' to check which keys are configured.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [source]",
	Short: "Store an API key for a catalog",
	Long: `Store an API key for a catalog.

If no source is specified, you will be prompted to select one.
CURSEFORGE_API_KEY, when set, takes precedence over the stored key.

Examples:
  mcmm auth login
  mcmm auth login curseforge
  echo "$KEY" | mcmm auth login modrinth`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [source]",
	Short: "Remove the stored API key for a catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which catalogs have an API key",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

// sourceArg returns the site named in args, prompting when absent
func sourceArg(args []string) (domain.SourceSite, error) {
	if len(args) == 0 {
		site, err := promptForSource(stdin)
		fmt.Println()
		return site, err
	}
	site, ok := domain.ParseSourceSite(args[0])
	if !ok || !isSupportedSource(site) {
		return domain.SiteLocal, fmt.Errorf("unsupported source: %s (supported: curseforge, modrinth)", args[0])
	}
	return site, nil
}

// promptForSource displays an interactive menu to select a source
func promptForSource(in io.Reader) (domain.SourceSite, error) {
	fmt.Println("Select a source:")
	for i, site := range supportedSources {
		fmt.Printf("  [%d] %s\n", i+1, sourceDisplayName(site))
	}
	fmt.Print("Enter choice (1-" + strconv.Itoa(len(supportedSources)) + "): ")

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return domain.SiteLocal, fmt.Errorf("reading input: %w", err)
	}
	choice, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || choice < 1 || choice > len(supportedSources) {
		return domain.SiteLocal, fmt.Errorf("invalid choice: please enter a number between 1 and %d", len(supportedSources))
	}
	return supportedSources[choice-1], nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	site, err := sourceArg(args)
	if err != nil {
		return err
	}

	printAuthInstructions(site)

	apiKey, err := readAPIKey()
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	fmt.Print("Validating... ")
	if err := validateAPIKey(cmd.Context(), site, apiKey); err != nil {
		fmt.Println("failed")
		return fmt.Errorf("invalid API key: %w", err)
	}
	fmt.Println("done")

	return withService(func(svc *core.Service) error {
		if err := svc.SaveAPIKey(site, apiKey); err != nil {
			return fmt.Errorf("saving API key: %w", err)
		}
		fmt.Printf("Saved %s API key.\n", sourceDisplayName(site))
		return nil
	})
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	site, err := sourceArg(args)
	if err != nil {
		return err
	}
	return withService(func(svc *core.Service) error {
		if err := svc.DeleteAPIKey(site); err != nil {
			return fmt.Errorf("removing API key: %w", err)
		}
		fmt.Printf("Removed %s API key.\n", sourceDisplayName(site))
		return nil
	})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	return withService(func(svc *core.Service) error {
		for _, site := range supportedSources {
			if envKey := envKeyForSource(site); envKey != "" {
				if apiKey := os.Getenv(envKey); apiKey != "" {
					fmt.Printf("%s: configured via %s (key: %s)\n", sourceDisplayName(site), envKey, maskAPIKey(apiKey))
					continue
				}
			}

			token, err := svc.StoredAPIKey(site)
			if err != nil {
				return fmt.Errorf("checking %s: %w", site, err)
			}
			if token != nil {
				fmt.Printf("%s: configured (key: %s)\n", sourceDisplayName(site), maskAPIKey(token.APIKey))
				continue
			}
			fmt.Printf("%s: not configured\n", sourceDisplayName(site))
		}
		return nil
	})
}

func isSupportedSource(site domain.SourceSite) bool {
	for _, s := range supportedSources {
		if s == site {
			return true
		}
	}
	return false
}

func sourceDisplayName(site domain.SourceSite) string {
	switch site {
	case domain.SiteCurseforge:
		return "CurseForge"
	case domain.SiteModrinth:
		return "Modrinth"
	default:
		return site.String()
	}
}

// envKeyForSource returns the environment variable that overrides a stored key
func envKeyForSource(site domain.SourceSite) string {
	if site == domain.SiteCurseforge {
		return "CURSEFORGE_API_KEY"
	}
	return ""
}

func printAuthInstructions(site domain.SourceSite) {
	switch site {
	case domain.SiteCurseforge:
		fmt.Println("To get a CurseForge API key:")
		fmt.Println("1. Visit https://console.curseforge.com/")
		fmt.Println("2. Create an API key")
		fmt.Println("3. Copy the key")
	case domain.SiteModrinth:
		fmt.Println("To get a Modrinth token:")
		fmt.Println("1. Visit https://modrinth.com/settings/pats")
		fmt.Println("2. Create a personal access token (no scopes needed)")
		fmt.Println("3. Copy the token")
	}
	fmt.Println()
}

// validateAPIKey checks a key before it is stored. Modrinth tokens are
// optional and not checked.
var validateAPIKey = func(ctx context.Context, site domain.SourceSite, apiKey string) error {
	switch site {
	case domain.SiteCurseforge:
		return curseforge.NewClient(nil, apiKey, nil).ValidateAPIKey(ctx)
	case domain.SiteModrinth:
		return nil
	default:
		return fmt.Errorf("unknown source: %s", site)
	}
}

// readAPIKey prompts for and reads an API key, hiding input on a terminal
func readAPIKey() (string, error) {
	fmt.Print("Enter API key: ")

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		keyBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimSpace(string(keyBytes)), nil
	}

	key, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && key == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(key), nil
}

// maskAPIKey returns a masked version of the API key (shows first 3 and last 3 chars)
func maskAPIKey(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
