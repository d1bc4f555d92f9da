package main

import (
	"errors"
	"fmt"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <mod-id>...",
	Short: "Enable disabled mods",
	Long: `Enable mods by renaming <name>.jar.disabled back to <name>.jar.

Examples:
  mcmm enable sodium
  mcmm enable sodium iris`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetEnabled(cmd, args, true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <mod-id>...",
	Short: "Disable mods without deleting them",
	Long: `Disable mods by renaming <name>.jar to <name>.jar.disabled.
The game ignores disabled files.

Examples:
  mcmm disable optifine`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetEnabled(cmd, args, false)
	},
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}

func runSetEnabled(cmd *cobra.Command, args []string, enabled bool) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(svc)

	folder, err := requireFolder(svc)
	if err != nil {
		return err
	}

	records, err := svc.Records(cmd.Context(), folder)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", folder.Path, err)
	}
	records, err = filterRecords(liveRecords(records), args)
	if err != nil {
		return err
	}

	want := domain.StateDisabled
	if enabled {
		want = domain.StateActive
	}

	var errs []error
	for _, rec := range records {
		if rec.State == want {
			if verbose {
				fmt.Printf("  %s already %s\n", rec.FileName, want)
			}
			continue
		}
		updated, err := svc.SetEnabled(rec, enabled)
		if err != nil {
			fmt.Printf("  %s %s: %v\n", colorRed("✗"), rec.FileName, err)
			errs = append(errs, err)
			continue
		}
		fmt.Printf("  %s %s\n", colorGreen("✓"), updated.FileName)
	}
	return errors.Join(errs...)
}
