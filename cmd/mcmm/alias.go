package main

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/DonovanMods/mc-mod-manager/internal/core"

	"github.com/spf13/cobra"
)

var aliasCmd = &cobra.Command{
	Use:   "alias <mod-id> [alias]",
	Short: "Set or clear a display name for a mod",
	Long: `Show a mod under a different name in listings.
Omit the alias to clear it.

Examples:
  mcmm alias jei "Just Enough Items"
  mcmm alias jei
  mcmm alias list`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAlias,
}

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mod aliases",
	Args:  cobra.NoArgs,
	RunE:  runAliasList,
}

func init() {
	aliasCmd.AddCommand(aliasListCmd)
	rootCmd.AddCommand(aliasCmd)
}

func runAlias(cmd *cobra.Command, args []string) error {
	modID := args[0]
	alias := ""
	if len(args) == 2 {
		alias = args[1]
	}
	return withService(func(svc *core.Service) error {
		if err := svc.SetAlias(modID, alias); err != nil {
			return fmt.Errorf("saving alias: %w", err)
		}
		if alias == "" {
			fmt.Printf("Cleared alias for %s\n", modID)
		} else {
			fmt.Printf("%s is now shown as %q\n", modID, alias)
		}
		return nil
	})
}

func runAliasList(cmd *cobra.Command, args []string) error {
	return withService(func(svc *core.Service) error {
		aliases := svc.Aliases()
		if jsonOutput {
			return writeJSON(os.Stdout, aliases)
		}
		if len(aliases) == 0 {
			fmt.Println("No aliases.")
			return nil
		}
		ids := make([]string, 0, len(aliases))
		for id := range aliases {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MOD\tALIAS")
		fmt.Fprintln(w, "---\t-----")
		for _, id := range ids {
			fmt.Fprintf(w, "%s\t%s\n", id, aliases[id])
		}
		w.Flush()
		return nil
	})
}
