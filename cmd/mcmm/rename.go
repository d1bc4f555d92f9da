package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var renameDryRun bool

var renameCmd = &cobra.Command{
	Use:   "rename <pattern> [mod-id...]",
	Short: "Rename mod files from a pattern",
	Long: `Rename mod files using a pattern of placeholders.

Placeholders:
  {modId}          the mod id
  {modName}        the display name
  {modVersion}     the mod version
  {tags:<cat>}     tags of one category joined with "+"
                   (cat: type, functionality, translation, custom)

The .jar (and .disabled) suffix is kept. Nothing is renamed when any
target collides with another file.

Examples:
  mcmm rename "{modId}-{modVersion}"
  mcmm rename "[{tags:type}] {modName}" sodium iris
  mcmm rename "{modName}" --dry-run
  mcmm rename history`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRename,
}

var renameHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently used rename patterns",
	Args:  cobra.NoArgs,
	RunE:  runRenameHistory,
}

func init() {
	renameCmd.Flags().BoolVar(&renameDryRun, "dry-run", false, "show the new names without renaming")

	renameCmd.AddCommand(renameHistoryCmd)
	rootCmd.AddCommand(renameCmd)
}

func runRename(cmd *cobra.Command, args []string) error {
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
	records, err = filterRecords(liveRecords(records), args[1:])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No mod files to rename.")
		return nil
	}

	pattern := args[0]
	renames, verr := svc.PreviewRenames(pattern, records)
	if renames == nil && verr != nil {
		return verr
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURRENT\tNEW")
	fmt.Fprintln(w, "-------\t---")
	for _, r := range renames {
		if r.FileName() == r.Record.FileName {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", r.Record.FileName, r.FileName())
	}
	w.Flush()

	if verr != nil {
		return verr
	}
	if renameDryRun {
		fmt.Println("\nUse without --dry-run to rename.")
		return nil
	}

	renamed, err := svc.RenameBatch(pattern, records)
	if err != nil {
		return fmt.Errorf("renaming: %w", err)
	}
	fmt.Printf("\nRenamed %d file(s).\n", len(renamed))
	return nil
}

func runRenameHistory(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(svc)

	history, err := svc.RenameHistory()
	if err != nil {
		return fmt.Errorf("loading rename history: %w", err)
	}
	if jsonOutput {
		if history == nil {
			history = []string{}
		}
		return writeJSON(os.Stdout, history)
	}
	if len(history) == 0 {
		fmt.Println("No rename patterns used yet.")
		return nil
	}
	for _, p := range history {
		fmt.Println(p)
	}
	return nil
}
