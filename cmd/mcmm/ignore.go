package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/spf13/cobra"
)

var (
	ignoreSite    string
	ignoreVersion string
)

type ignoreJSON struct {
	ModID   string `json:"mod_id"`
	Source  string `json:"source"`
	Version string `json:"version,omitempty"`
}

var ignoreCmd = &cobra.Command{
	Use:   "ignore <mod-id>",
	Short: "Skip updates for a mod",
	Long: `Stop offering updates for a mod from one catalog.

Without --version every version is ignored; with it only that version is
skipped and later ones are offered again.

Examples:
  mcmm ignore optifine
  mcmm ignore sodium --source modrinth --version 0.5.4
  mcmm ignore list
  mcmm ignore clear sodium
  mcmm ignore clear`,
	Args: cobra.ExactArgs(1),
	RunE: runIgnore,
}

var ignoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ignored updates",
	Args:  cobra.NoArgs,
	RunE:  runIgnoreList,
}

var ignoreClearCmd = &cobra.Command{
	Use:   "clear [mod-id]",
	Short: "Remove ignores for one mod, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIgnoreClear,
}

func init() {
	ignoreCmd.Flags().StringVarP(&ignoreSite, "source", "s", "curseforge", "catalog offering the update (curseforge, modrinth)")
	ignoreCmd.Flags().StringVar(&ignoreVersion, "version", "", "only ignore this version")

	ignoreCmd.AddCommand(ignoreListCmd)
	ignoreCmd.AddCommand(ignoreClearCmd)
	rootCmd.AddCommand(ignoreCmd)
}

func runIgnore(cmd *cobra.Command, args []string) error {
	site, ok := domain.ParseSourceSite(ignoreSite)
	if !ok || site == domain.SiteLocal {
		return fmt.Errorf("unsupported source: %s (supported: curseforge, modrinth)", ignoreSite)
	}
	ig := domain.Ignore{ModID: args[0], Site: site, Version: ignoreVersion}
	return withService(func(svc *core.Service) error {
		if err := svc.Ignore(ig); err != nil {
			return fmt.Errorf("saving ignore: %w", err)
		}
		if ig.Version == "" {
			fmt.Printf("Ignoring all %s updates for %s\n", site, ig.ModID)
		} else {
			fmt.Printf("Ignoring %s %s from %s\n", ig.ModID, ig.Version, site)
		}
		return nil
	})
}

func runIgnoreList(cmd *cobra.Command, args []string) error {
	return withService(func(svc *core.Service) error {
		ignores, err := svc.Ignores()
		if err != nil {
			return fmt.Errorf("loading ignores: %w", err)
		}
		if jsonOutput {
			out := make([]ignoreJSON, 0, len(ignores))
			for _, ig := range ignores {
				out = append(out, ignoreJSON{ModID: ig.ModID, Source: ig.Site.String(), Version: ig.Version})
			}
			return writeJSON(os.Stdout, out)
		}
		if len(ignores) == 0 {
			fmt.Println("No ignored updates.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MOD\tSOURCE\tVERSION")
		fmt.Fprintln(w, "---\t------\t-------")
		for _, ig := range ignores {
			version := ig.Version
			if version == "" {
				version = "(all)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ig.ModID, ig.Site, version)
		}
		w.Flush()
		return nil
	})
}

func runIgnoreClear(cmd *cobra.Command, args []string) error {
	modID := ""
	if len(args) == 1 {
		modID = args[0]
	}
	return withService(func(svc *core.Service) error {
		n, err := svc.ClearIgnores(modID)
		if err != nil {
			return fmt.Errorf("clearing ignores: %w", err)
		}
		fmt.Printf("Removed %d ignore(s)\n", n)
		return nil
	})
}
