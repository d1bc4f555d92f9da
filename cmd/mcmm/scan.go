package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/spf13/cobra"
)

var scanAll bool

type scanJSONOutput struct {
	Folder  string       `json:"folder"`
	Path    string       `json:"path"`
	Records []recordJSON `json:"records"`
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the mod files in a folder",
	Long: `Scan a managed folder and list every mod file with its metadata.

Superseded (.old) files are hidden unless --all is given.

Examples:
  mcmm scan
  mcmm scan --folder survival --all
  mcmm scan --json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanAll, "all", "a", false, "include superseded .old files")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
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
	if !scanAll {
		records = liveRecords(records)
	}

	if jsonOutput {
		out := scanJSONOutput{Folder: folder.Name, Path: folder.Path, Records: []recordJSON{}}
		for _, rec := range records {
			out.Records = append(out.Records, toRecordJSON(svc, rec))
		}
		return writeJSON(os.Stdout, out)
	}

	if len(records) == 0 {
		fmt.Println("No mod files found.")
		return nil
	}
	printRecords(svc, records)
	return nil
}

func printRecords(svc *core.Service, records []domain.ModRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tSTATE\tSOURCE\tTAGS")
	fmt.Fprintln(w, "--\t----\t-------\t-----\t------\t----")
	for _, rec := range records {
		state := rec.State.String()
		switch {
		case core.IsCorrupt(rec):
			state = colorRed("corrupt")
		case rec.State == domain.StateDisabled:
			state = colorYellow(state)
		}
		var tags []string
		for _, t := range svc.VisibleTags(rec.Tags) {
			tags = append(tags, t.Value)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(rec.ModID, 30),
			truncate(svc.DisplayName(rec), 40),
			orDash(rec.Version),
			state,
			rec.Source,
			orDash(strings.Join(tags, ",")),
		)
	}
	w.Flush()
}
