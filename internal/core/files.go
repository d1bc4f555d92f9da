package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// SetState renames a mod file so its suffix encodes state and returns the
// updated record. Moving to the current state is a no-op.
func SetState(record domain.ModRecord, state domain.ModState) (domain.ModRecord, error) {
	target := domain.PathForState(record.Path, state)
	if target == record.Path {
		record.State = state
		return record, nil
	}
	if _, err := os.Lstat(target); err == nil {
		return record, fmt.Errorf("%w: %s already exists", domain.ErrTargetCollision, filepath.Base(target))
	}
	if err := os.Rename(record.Path, target); err != nil {
		return record, fmt.Errorf("%w: renaming %s: %w", domain.ErrIO, record.FileName, err)
	}

	record.Path = target
	record.FileName = filepath.Base(target)
	record.State = state
	return record, nil
}

// Demote marks a record Old
func Demote(record domain.ModRecord) (domain.ModRecord, error) {
	return SetState(record, domain.StateOld)
}

// SetEnabled toggles a record between Active and Disabled. An Old file
// that is enabled or disabled leaves the Old state.
func SetEnabled(record domain.ModRecord, enabled bool) (domain.ModRecord, error) {
	if enabled {
		return SetState(record, domain.StateActive)
	}
	return SetState(record, domain.StateDisabled)
}

// CommitDemotions demotes every proposed record of the given groups.
// It keeps going after a failure and returns the records it demoted with
// the joined errors.
func CommitDemotions(groups []DuplicateGroup) ([]domain.ModRecord, error) {
	var demoted []domain.ModRecord
	var errs []error
	for _, g := range groups {
		for _, rec := range g.Demote {
			out, err := Demote(rec)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			demoted = append(demoted, out)
		}
	}
	return demoted, errors.Join(errs...)
}

// PurgeFiles deletes the given Old files. Files that are already gone count
// as purged; paths not in the Old state are refused.
func PurgeFiles(paths []string) ([]string, error) {
	var purged []string
	var errs []error
	for _, p := range paths {
		if state, ok := domain.StateFromFileName(filepath.Base(p)); !ok || state != domain.StateOld {
			errs = append(errs, fmt.Errorf("refusing to purge %s: not a superseded file", filepath.Base(p)))
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("%w: removing %s: %w", domain.ErrIO, filepath.Base(p), err))
			continue
		}
		purged = append(purged, p)
	}
	return purged, errors.Join(errs...)
}

// OldFiles returns the paths of every Old record
func OldFiles(records []domain.ModRecord) []string {
	var out []string
	for _, r := range records {
		if r.State == domain.StateOld {
			out = append(out, r.Path)
		}
	}
	return out
}
