package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/spf13/cobra"
)

var (
	purgeAll bool
	purgeYes bool
)

type purgeJSONOutput struct {
	Folder string   `json:"folder"`
	Purged []string `json:"purged"`
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete superseded .old files",
	Long: `Delete the .old files kept by previous updates and demotions.

By default only files mcmm retained itself are removed. With --all every
.old file in the folder is deleted, including ones created by hand.

Examples:
  mcmm purge
  mcmm purge --all
  mcmm purge --yes`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeAll, "all", false, "delete every .old file in the folder")
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip confirmation prompt")

	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(svc)

	folder, err := requireFolder(svc)
	if err != nil {
		return err
	}

	if !purgeYes && !jsonOutput {
		n, err := purgeCandidates(cmd, svc, folder)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Println("Nothing to purge.")
			return nil
		}
		if !confirm(stdin, fmt.Sprintf("Delete %d superseded file(s) from %s?", n, folder.Name)) {
			return ErrCancelled
		}
	}

	purged, err := svc.Purge(cmd.Context(), folder, purgeAll)
	if jsonOutput {
		if purged == nil {
			purged = []string{}
		}
		if jerr := writeJSON(os.Stdout, purgeJSONOutput{Folder: folder.Name, Purged: purged}); jerr != nil {
			return jerr
		}
		return err
	}

	for _, p := range purged {
		fmt.Printf("  %s %s\n", colorGreen("✓"), filepath.Base(p))
	}
	fmt.Printf("\nPurged: %d file(s)\n", len(purged))
	if err != nil {
		return fmt.Errorf("purging: %w", err)
	}
	return nil
}

// purgeCandidates counts the files a purge would delete
func purgeCandidates(cmd *cobra.Command, svc *core.Service, folder domain.Folder) (int, error) {
	if purgeAll {
		records, err := svc.Records(cmd.Context(), folder)
		if err != nil {
			return 0, fmt.Errorf("scanning %s: %w", folder.Path, err)
		}
		return len(core.OldFiles(records)), nil
	}
	retained, err := svc.RetainedFiles()
	if err != nil {
		return 0, fmt.Errorf("loading retained files: %w", err)
	}
	n := 0
	dir := filepath.Clean(folder.Path)
	for _, r := range retained {
		if filepath.Dir(r.Path) == dir {
			n++
		}
	}
	return n, nil
}
