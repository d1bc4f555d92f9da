package core

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"go.uber.org/zap"
)

// Index discovers mod files in a folder and derives their identity
type Index struct {
	logger   *zap.Logger
	decorate func(*domain.ModRecord)
}

// NewIndex creates an identity index. logger may be nil.
func NewIndex(logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{logger: logger}
}

// SetDecorator installs a hook run on every parsed record, used to attach
// persisted state (tags, aliases, known origin) that the archive cannot carry
func (ix *Index) SetDecorator(fn func(*domain.ModRecord)) {
	ix.decorate = fn
}

// Scan is the file listing of one folder; records are parsed lazily by All
type Scan struct {
	index  *Index
	folder string
	paths  []string
}

// Scan lists the mod files in folder. The only error is an invalid or
// unreadable folder; per-file problems surface on the records.
func (ix *Index) Scan(ctx context.Context, folder string) (*Scan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidFolder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidFolder, folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrInvalidFolder, folder, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := domain.StateFromFileName(e.Name()); !ok {
			continue
		}
		paths = append(paths, filepath.Join(folder, e.Name()))
	}
	sort.Strings(paths)

	ix.logger.Debug("scanned folder", zap.String("folder", folder), zap.Int("files", len(paths)))

	return &Scan{index: ix, folder: folder, paths: paths}, nil
}

// Folder returns the scanned folder
func (s *Scan) Folder() string {
	return s.folder
}

// Total returns the number of mod files found
func (s *Scan) Total() int {
	return len(s.paths)
}

// All yields (position, record) pairs in file name order, parsing each
// file as it is reached. Each range starts over from the first file.
// Breaking out of the range stops parsing; so does cancelling ctx.
func (s *Scan) All(ctx context.Context) iter.Seq2[int, domain.ModRecord] {
	return func(yield func(int, domain.ModRecord) bool) {
		for i, path := range s.paths {
			if ctx.Err() != nil {
				return
			}
			rec, err := s.index.Parse(path)
			if err != nil {
				// Vanished or unreadable between listing and parsing
				s.index.logger.Warn("reading mod file", zap.String("path", path), zap.Error(err))
				rec.ParseError = err
			}
			if !yield(i, rec) {
				return
			}
		}
	}
}

// Records parses every file. Returns ctx's error if scanning was cancelled.
func (s *Scan) Records(ctx context.Context) ([]domain.ModRecord, error) {
	records := make([]domain.ModRecord, 0, len(s.paths))
	for _, rec := range s.All(ctx) {
		records = append(records, rec)
	}
	if err := ctx.Err(); err != nil {
		return records, err
	}
	return records, nil
}

// Parse reads one mod file. A corrupt archive or malformed metadata yields a
// record with ParseError set; the returned error is reserved for files that
// cannot be read at all.
func (ix *Index) Parse(path string) (domain.ModRecord, error) {
	name := filepath.Base(path)
	state, _ := domain.StateFromFileName(name)
	base, _ := domain.SplitFileName(name)

	rec := domain.ModRecord{
		Path:        path,
		FileName:    name,
		ModID:       base,
		DisplayName: GuessModName(name),
		State:       state,
		Source:      domain.SiteLocal,
	}

	info, err := os.Stat(path)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	rec.Size = info.Size()
	rec.ModTime = info.ModTime()

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	rec.FileHash = SHA1Hex(data)
	rec.Fingerprint = CurseForgeFingerprint(data)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		rec.ParseError = fmt.Errorf("%w: %s: %w", domain.ErrParse, name, err)
		ix.logger.Warn("corrupt mod archive", zap.String("file", name), zap.Error(err))
		ix.apply(&rec)
		return rec, nil
	}

	meta, err := readMetadata(zr)
	switch {
	case err != nil:
		rec.ParseError = fmt.Errorf("%w: %s: %w", domain.ErrParse, name, err)
		ix.logger.Warn("malformed mod metadata", zap.String("file", name), zap.Error(err))
	case meta != nil:
		rec.HasMetadata = true
		rec.ModID = meta.ModID
		if meta.DisplayName != "" {
			rec.DisplayName = meta.DisplayName
		}
		rec.Version = meta.Version
		rec.Loaders = meta.Loaders
		rec.GameVersions = meta.GameVersions
		rec.GameRange = meta.GameRange
		rec.Relationships = meta.Relationships
	}

	ix.apply(&rec)
	return rec, nil
}

func (ix *Index) apply(rec *domain.ModRecord) {
	if ix.decorate != nil {
		ix.decorate(rec)
	}
}

// IsCorrupt reports whether a record's archive could not be understood
func IsCorrupt(rec domain.ModRecord) bool {
	return rec.ParseError != nil && errors.Is(rec.ParseError, domain.ErrParse)
}
