package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/spf13/cobra"
)

type checkJSONOutput struct {
	Folder  string       `json:"folder"`
	Checked int          `json:"checked"`
	Updates []updateJSON `json:"updates"`
	Issues  []issueJSON  `json:"issues"`
}

type updateJSON struct {
	ID         string `json:"id"`
	ModID      string `json:"mod_id"`
	Name       string `json:"name"`
	Current    string `json:"current"`
	Available  string `json:"available"`
	Source     string `json:"source"`
	TargetPath string `json:"target_path"`
}

type issueJSON struct {
	ModID  string `json:"mod_id"`
	Source string `json:"source,omitempty"`
	Error  string `json:"error"`
}

var checkCmd = &cobra.Command{
	Use:   "check [mod-id...]",
	Short: "Check for mod updates",
	Long: `Check the configured catalogs for newer versions of the active mods.

Without arguments every active mod is checked. Nothing is downloaded;
use 'mcmm update' to apply the updates.

Examples:
  mcmm check
  mcmm check sodium lithium
  mcmm check --json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(svc)

	folder, err := requireFolder(svc)
	if err != nil {
		return err
	}

	plan, err := planUpdates(cmd.Context(), svc, folder, args)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(os.Stdout, planToJSON(svc, folder, plan))
	}
	printPlan(svc, plan)
	return nil
}

// planUpdates scans folder and checks the selected mods for updates
func planUpdates(ctx context.Context, svc *core.Service, folder domain.Folder, modIDs []string) (*core.Plan, error) {
	records, err := svc.Records(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", folder.Path, err)
	}
	records, err = filterRecords(activeRecords(records), modIDs)
	if err != nil {
		return nil, err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Checking %d mod(s) for updates...\n", len(records))
	}
	plan, err := svc.Check(ctx, folder, records)
	if err != nil {
		return nil, fmt.Errorf("checking updates: %w", err)
	}
	return plan, nil
}

func printPlan(svc *core.Service, plan *core.Plan) {
	printIssues(plan)

	if len(plan.Actions) == 0 {
		fmt.Printf("All %d mod(s) are up to date.\n", plan.Checked)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MOD\tCURRENT\tAVAILABLE\tSOURCE")
	fmt.Fprintln(w, "---\t-------\t---------\t------")
	for _, a := range plan.Actions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			truncate(svc.DisplayName(a.Source), 40),
			orDash(a.Source.Version),
			colorGreen(a.Candidate.Version),
			a.Candidate.Site,
		)
	}
	w.Flush()

	fmt.Printf("\n%d update(s) available.\n", len(plan.Actions))
}

// printIssues lists auth problems always and other per-mod issues in verbose mode
func printIssues(plan *core.Plan) {
	var hidden int
	for _, issue := range plan.Issues {
		if !verbose && !errors.Is(issue.Err, domain.ErrAuthRequired) {
			hidden++
			continue
		}
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", colorYellow("!"), issue.Record.ModID, issue.Err)
	}
	if hidden > 0 {
		fmt.Fprintf(os.Stderr, "%d mod(s) could not be checked (use --verbose for details)\n", hidden)
	}
}

func planToJSON(svc *core.Service, folder domain.Folder, plan *core.Plan) checkJSONOutput {
	out := checkJSONOutput{
		Folder:  folder.Name,
		Checked: plan.Checked,
		Updates: []updateJSON{},
		Issues:  []issueJSON{},
	}
	for _, a := range plan.Actions {
		out.Updates = append(out.Updates, updateJSON{
			ID:         a.ID,
			ModID:      a.Source.ModID,
			Name:       svc.DisplayName(a.Source),
			Current:    a.Source.Version,
			Available:  a.Candidate.Version,
			Source:     a.Candidate.Site.String(),
			TargetPath: a.TargetPath,
		})
	}
	for _, issue := range plan.Issues {
		ij := issueJSON{ModID: issue.Record.ModID, Error: issue.Err.Error()}
		if issue.Site != domain.SiteLocal {
			ij.Source = issue.Site.String()
		}
		out.Issues = append(out.Issues, ij)
	}
	return out
}
