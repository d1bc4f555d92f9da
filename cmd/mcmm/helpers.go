package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// recordJSON is the JSON shape of one scanned file
type recordJSON struct {
	ModID        string   `json:"mod_id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	FileName     string   `json:"file_name"`
	Path         string   `json:"path"`
	State        string   `json:"state"`
	Source       string   `json:"source,omitempty"`
	Loaders      []string `json:"loaders,omitempty"`
	GameVersions []string `json:"game_versions,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	SHA1         string   `json:"sha1"`
	Error        string   `json:"error,omitempty"`
}

func toRecordJSON(svc *core.Service, rec domain.ModRecord) recordJSON {
	out := recordJSON{
		ModID:        rec.ModID,
		Name:         svc.DisplayName(rec),
		Version:      rec.Version,
		FileName:     rec.FileName,
		Path:         rec.Path,
		State:        rec.State.String(),
		Loaders:      rec.Loaders,
		GameVersions: rec.GameVersions,
		SHA1:         rec.FileHash,
	}
	if rec.Source != domain.SiteLocal {
		out.Source = rec.Source.String()
	}
	for _, t := range svc.VisibleTags(rec.Tags) {
		out.Tags = append(out.Tags, t.String())
	}
	if rec.ParseError != nil {
		out.Error = rec.ParseError.Error()
	}
	return out
}

// writeJSON encodes v as indented JSON to w
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// filterRecords keeps records whose mod id is in modIDs; no ids keeps everything.
// Unknown ids are reported as ErrModNotFound.
func filterRecords(records []domain.ModRecord, modIDs []string) ([]domain.ModRecord, error) {
	if len(modIDs) == 0 {
		return records, nil
	}
	wanted := make(map[string]bool, len(modIDs))
	for _, id := range modIDs {
		wanted[id] = false
	}
	var out []domain.ModRecord
	for _, rec := range records {
		if _, ok := wanted[rec.ModID]; ok {
			wanted[rec.ModID] = true
			out = append(out, rec)
		}
	}
	for _, id := range modIDs {
		if !wanted[id] {
			return nil, fmt.Errorf("%w: %s", domain.ErrModNotFound, id)
		}
	}
	return out, nil
}

// activeRecords keeps records in the Active state
func activeRecords(records []domain.ModRecord) []domain.ModRecord {
	var out []domain.ModRecord
	for _, rec := range records {
		if rec.State == domain.StateActive {
			out = append(out, rec)
		}
	}
	return out
}

// liveRecords drops superseded (.old) files
func liveRecords(records []domain.ModRecord) []domain.ModRecord {
	var out []domain.ModRecord
	for _, rec := range records {
		if rec.State != domain.StateOld {
			out = append(out, rec)
		}
	}
	return out
}

// confirm asks a yes/no question on stdin; anything but y/yes is a no
func confirm(in io.Reader, prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// truncate shortens s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// orDash renders empty values as "-" in tables
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var stdin io.Reader = os.Stdin
