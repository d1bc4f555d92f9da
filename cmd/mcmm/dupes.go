package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/spf13/cobra"
)

var (
	dupesApply bool
	dupesYes   bool
)

type dupesJSONOutput struct {
	Folder     string          `json:"folder"`
	Duplicates []duplicateJSON `json:"duplicates"`
	Relations  []relationJSON  `json:"relations"`
	Demoted    []string        `json:"demoted,omitempty"`
}

type duplicateJSON struct {
	ModID  string   `json:"mod_id"`
	Keep   string   `json:"keep"`
	Demote []string `json:"demote"`
}

type relationJSON struct {
	ModID      string   `json:"mod_id"`
	Kind       string   `json:"kind"`
	Target     string   `json:"target"`
	Constraint string   `json:"constraint,omitempty"`
	Installed  []string `json:"installed,omitempty"`
}

var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "Find duplicate mod files and broken dependencies",
	Long: `Report mods installed more than once and relationships that do not hold.

For each duplicate the newest version is kept. With --apply the others are
renamed to .old; they are deleted by 'mcmm purge' unless post_update is
"nothing".

Examples:
  mcmm dupes
  mcmm dupes --apply
  mcmm dupes --apply --yes`,
	RunE: runDupes,
}

func init() {
	dupesCmd.Flags().BoolVar(&dupesApply, "apply", false, "demote the superseded duplicates")
	dupesCmd.Flags().BoolVarP(&dupesYes, "yes", "y", false, "skip confirmation prompt")

	rootCmd.AddCommand(dupesCmd)
}

func runDupes(cmd *cobra.Command, args []string) error {
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
	records, err := svc.Records(ctx, folder)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", folder.Path, err)
	}
	dupes, relations := svc.Resolve(records)

	var demoted []domain.ModRecord
	if dupesApply && len(dupes.Groups) > 0 {
		if !dupesYes && !jsonOutput {
			printDuplicates(dupes)
			if !confirm(stdin, fmt.Sprintf("\nDemote %d file(s)?", len(dupes.Demotions()))) {
				return ErrCancelled
			}
		}
		demoted, err = svc.CommitDemotions(ctx, dupes.Groups)
		if err != nil && len(demoted) == 0 {
			return fmt.Errorf("demoting duplicates: %w", err)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	if jsonOutput {
		return writeJSON(os.Stdout, dupesToJSON(folder, dupes, relations, demoted))
	}

	if len(dupes.Groups) == 0 && relations.Empty() {
		fmt.Println("No duplicates or dependency problems found.")
		return nil
	}

	if dupesApply {
		for _, rec := range demoted {
			fmt.Printf("  %s %s\n", colorGreen("✓"), rec.FileName)
		}
		if len(demoted) > 0 {
			fmt.Printf("\nDemoted %d file(s).\n", len(demoted))
		}
	} else if len(dupes.Groups) > 0 {
		printDuplicates(dupes)
		fmt.Println("\nUse --apply to demote the superseded files.")
	}

	if !relations.Empty() {
		fmt.Println()
		printRelations(relations)
	}
	return nil
}

func printDuplicates(dupes core.DuplicateReport) {
	fmt.Printf("%d duplicate mod(s):\n", len(dupes.Groups))
	for _, g := range dupes.Groups {
		fmt.Printf("  %s\n", g.ModID)
		fmt.Printf("    keep    %s\n", g.Keep.FileName)
		for _, d := range g.Demote {
			fmt.Printf("    %s  %s\n", colorYellow("demote"), d.FileName)
		}
	}
}

func printRelations(relations core.RelationshipReport) {
	for _, issue := range relations.UnresolvedDepends {
		want := issue.Relationship.TargetModID
		if issue.Relationship.Constraint != "" {
			want += " " + issue.Relationship.Constraint
		}
		if len(issue.Matched) == 0 {
			fmt.Printf("%s %s requires %s (not installed)\n", colorRed("✗"), issue.From.ModID, want)
			continue
		}
		fmt.Printf("%s %s requires %s (installed: %s)\n", colorRed("✗"), issue.From.ModID, want, versionsOf(issue.Matched))
	}
	for _, issue := range relations.Conflicts {
		fmt.Printf("%s %s conflicts with %s %s\n", colorYellow("!"), issue.From.ModID, issue.Relationship.TargetModID, versionsOf(issue.Matched))
	}
	for _, issue := range relations.Breaks {
		fmt.Printf("%s %s breaks %s %s\n", colorRed("✗"), issue.From.ModID, issue.Relationship.TargetModID, versionsOf(issue.Matched))
	}
}

func versionsOf(records []domain.ModRecord) string {
	versions := make([]string, 0, len(records))
	for _, rec := range records {
		versions = append(versions, orDash(rec.Version))
	}
	return strings.Join(versions, ", ")
}

func dupesToJSON(folder domain.Folder, dupes core.DuplicateReport, relations core.RelationshipReport, demoted []domain.ModRecord) dupesJSONOutput {
	out := dupesJSONOutput{Folder: folder.Name, Duplicates: []duplicateJSON{}, Relations: []relationJSON{}}
	for _, g := range dupes.Groups {
		d := duplicateJSON{ModID: g.ModID, Keep: g.Keep.FileName, Demote: []string{}}
		for _, rec := range g.Demote {
			d.Demote = append(d.Demote, rec.FileName)
		}
		out.Duplicates = append(out.Duplicates, d)
	}
	for _, list := range [][]core.RelationIssue{relations.UnresolvedDepends, relations.Conflicts, relations.Breaks} {
		for _, issue := range list {
			r := relationJSON{
				ModID:      issue.From.ModID,
				Kind:       issue.Relationship.Kind.String(),
				Target:     issue.Relationship.TargetModID,
				Constraint: issue.Relationship.Constraint,
			}
			for _, rec := range issue.Matched {
				r.Installed = append(r.Installed, rec.FileName)
			}
			out.Relations = append(out.Relations, r)
		}
	}
	for _, rec := range demoted {
		out.Demoted = append(out.Demoted, rec.FileName)
	}
	return out
}
