package main

import (
	"context"
	"fmt"
	"os"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/tui"

	"github.com/spf13/cobra"
)

var (
	updateDryRun  bool
	updateYes     bool
	updateTUI     bool
	updateRetries int
	updateKeys    string
)

type updateJSONOutput struct {
	Folder    string             `json:"folder"`
	DryRun    bool               `json:"dry_run"`
	Completed []updateResultJSON `json:"completed"`
	Failed    []updateResultJSON `json:"failed"`
	Pending   []updateResultJSON `json:"pending"`
	Issues    []issueJSON        `json:"issues"`
}

type updateResultJSON struct {
	ModID    string `json:"mod_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	Source   string `json:"source"`
	Path     string `json:"path,omitempty"`
	Retained string `json:"retained,omitempty"`
	Attempt  int    `json:"attempt"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

var updateCmd = &cobra.Command{
	Use:   "update [mod-id...]",
	Short: "Download and install mod updates",
	Long: `Check for updates and apply them.

Each update is downloaded to the staging area, verified against the
catalog's checksum and then placed in the folder. The superseded file is
handled according to post_update: deleted, kept as .old until 'mcmm purge',
or kept forever.

Examples:
  mcmm update                     # Update every mod
  mcmm update sodium iris         # Update specific mods
  mcmm update --dry-run           # Show what would update
  mcmm update --tui               # Live progress with pause/resume`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "show what would update without applying")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "skip confirmation prompt")
	updateCmd.Flags().BoolVar(&updateTUI, "tui", false, "show interactive progress")
	updateCmd.Flags().IntVar(&updateRetries, "retries", 1, "times to retry failed updates")
	updateCmd.Flags().StringVar(&updateKeys, "keys", "vim", "interactive keybindings: vim or standard")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(svc)

	folder, err := requireFolder(svc)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	plan, err := planUpdates(ctx, svc, folder, args)
	if err != nil {
		return err
	}

	if updateDryRun || len(plan.Actions) == 0 {
		if jsonOutput {
			out := planToUpdateJSON(folder, plan)
			out.DryRun = updateDryRun
			return writeJSON(os.Stdout, out)
		}
		printPlan(svc, plan)
		if updateDryRun && len(plan.Actions) > 0 {
			fmt.Println("\nUse without --dry-run to apply updates.")
		}
		return nil
	}

	if !jsonOutput && !updateTUI {
		printPlan(svc, plan)
		if !updateYes && !confirm(stdin, "\nApply updates?") {
			return ErrCancelled
		}
		fmt.Println()
	}

	batch, err := svc.Update(ctx, folder, plan.Actions)
	if err != nil {
		return err
	}
	summary, err := followBatch(svc, batch, plan.Actions)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < updateRetries && len(summary.Failed) > 0 && ctx.Err() == nil; attempt++ {
		if !jsonOutput {
			fmt.Printf("\nRetrying %d failed update(s)...\n", len(summary.Failed))
		}
		retried := svc.Retry(ctx, summary.Failed)
		next, err := followBatch(svc, retried, actionsOf(summary.Failed))
		if err != nil {
			return err
		}
		next.Completed = append(summary.Completed, next.Completed...)
		next.Pending = append(summary.Pending, next.Pending...)
		summary = next
	}

	if jsonOutput {
		out := summaryToJSON(folder, summary)
		out.Issues = planToUpdateJSON(folder, plan).Issues
		if err := writeJSON(os.Stdout, out); err != nil {
			return err
		}
		return summaryErr(ctx, summary)
	}

	printSummary(summary)
	return summaryErr(ctx, summary)
}

// followBatch renders a running batch until it finishes and returns its summary
func followBatch(svc *core.Service, batch *core.Batch, actions []domain.UpdateAction) (core.Summary, error) {
	if updateTUI && !jsonOutput {
		if err := tui.Run(batch, batch.Events(), actions, updateKeys); err != nil {
			batch.Cancel()
			batch.Wait()
			return core.Summary{}, fmt.Errorf("running progress view: %w", err)
		}
		return batch.Wait(), nil
	}

	names := make(map[string]string, len(actions))
	for _, a := range actions {
		names[a.ID] = svc.DisplayName(a.Source)
	}
	for ev := range batch.Events() {
		if jsonOutput {
			continue
		}
		printEvent(names[ev.ActionID], ev)
	}
	return batch.Wait(), nil
}

func printEvent(name string, ev core.ProgressEvent) {
	switch ev.State {
	case core.StateCompleted:
		version := ""
		if ev.Record != nil {
			version = ev.Record.Version
		}
		fmt.Printf("  %s %s %s\n", colorGreen("✓"), name, version)
	case core.StateFailed:
		if ev.Reason == core.FailureCancelled {
			fmt.Printf("  %s %s: cancelled\n", colorYellow("-"), name)
			return
		}
		fmt.Printf("  %s %s: %v\n", colorRed("✗"), name, ev.Err)
	case core.StateQueued:
	default:
		if verbose && ev.Downloaded == 0 {
			fmt.Printf("    %s: %s\n", name, ev.State)
		}
	}
}

func printSummary(summary core.Summary) {
	fmt.Printf("\nUpdated: %d mod(s)", len(summary.Completed))
	if len(summary.Failed) > 0 {
		fmt.Printf(", Failed: %d", len(summary.Failed))
	}
	if len(summary.Pending) > 0 {
		fmt.Printf(", Not started: %d", len(summary.Pending))
	}
	fmt.Println()

	var retained int
	for _, r := range summary.Completed {
		if r.Demoted != nil && r.Demoted.State == domain.StateOld {
			retained++
		}
	}
	if retained > 0 {
		fmt.Printf("%d superseded file(s) kept as .old; run 'mcmm purge' to remove them.\n", retained)
	}
}

// summaryErr maps an interrupted batch to ErrCancelled and failures to an error
func summaryErr(ctx context.Context, summary core.Summary) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}
	return summary.Err()
}

func actionsOf(results []core.ActionResult) []domain.UpdateAction {
	out := make([]domain.UpdateAction, 0, len(results))
	for _, r := range results {
		out = append(out, r.Action)
	}
	return out
}

func planToUpdateJSON(folder domain.Folder, plan *core.Plan) updateJSONOutput {
	out := updateJSONOutput{
		Folder:    folder.Name,
		Completed: []updateResultJSON{},
		Failed:    []updateResultJSON{},
		Pending:   []updateResultJSON{},
		Issues:    []issueJSON{},
	}
	for _, a := range plan.Actions {
		out.Pending = append(out.Pending, updateResultJSON{
			ModID:  a.Source.ModID,
			From:   a.Source.Version,
			To:     a.Candidate.Version,
			Source: a.Candidate.Site.String(),
			Path:   a.TargetPath,
		})
	}
	for _, issue := range plan.Issues {
		out.Issues = append(out.Issues, issueJSON{ModID: issue.Record.ModID, Error: issue.Err.Error()})
	}
	return out
}

func summaryToJSON(folder domain.Folder, summary core.Summary) updateJSONOutput {
	out := updateJSONOutput{
		Folder:    folder.Name,
		Completed: []updateResultJSON{},
		Failed:    []updateResultJSON{},
		Pending:   []updateResultJSON{},
	}
	for _, r := range summary.Completed {
		out.Completed = append(out.Completed, resultToJSON(r))
	}
	for _, r := range summary.Failed {
		out.Failed = append(out.Failed, resultToJSON(r))
	}
	for _, r := range summary.Pending {
		out.Pending = append(out.Pending, resultToJSON(r))
	}
	return out
}

func resultToJSON(r core.ActionResult) updateResultJSON {
	out := updateResultJSON{
		ModID:   r.Action.Source.ModID,
		From:    r.Action.Source.Version,
		To:      r.Action.Candidate.Version,
		Source:  r.Action.Candidate.Site.String(),
		Attempt: r.Attempt,
		Reason:  r.Reason.String(),
	}
	if r.Record != nil {
		out.Path = r.Record.Path
	}
	if r.Demoted != nil {
		out.Retained = r.Demoted.Path
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}
