package source

import (
	"context"
	"iter"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// Query describes one installed file to look up in a catalog.
// Catalogs use whichever identifiers they understand (hash, fingerprint, id).
type Query struct {
	ModID        string
	Name         string
	FileHash     string // SHA1, hex
	Fingerprint  uint32 // CurseForge murmur2
	GameVersions []string
	Loaders      []string
}

// QueryFor builds a Query from an installed record
func QueryFor(rec domain.ModRecord, gameVersions []string) Query {
	return Query{
		ModID:        rec.ModID,
		Name:         rec.Name(),
		FileHash:     rec.FileHash,
		Fingerprint:  rec.Fingerprint,
		GameVersions: gameVersions,
		Loaders:      rec.Loaders,
	}
}

// FileRef is a resolved, downloadable reference to a candidate file
type FileRef struct {
	URL      string
	FileName string
	Size     int64  // 0 if unknown
	SHA1     string // Empty if the catalog does not publish one
}

// CatalogClient is the contract for a remote mod catalog
type CatalogClient interface {
	// Identity
	ID() domain.SourceSite
	Name() string

	// Search yields candidate files for an installed mod. Pagination is handled
	// internally; the sequence ends when the catalog has no more results. A
	// non-nil error is yielded once and ends the sequence.
	Search(ctx context.Context, query Query) iter.Seq2[domain.RemoteCandidate, error]

	// ResolveFile turns a candidate into a downloadable reference
	ResolveFile(ctx context.Context, candidate domain.RemoteCandidate) (FileRef, error)
}

// Collect drains a search sequence into a slice.
// Candidates yielded before an error are returned along with it.
func Collect(seq iter.Seq2[domain.RemoteCandidate, error]) ([]domain.RemoteCandidate, error) {
	var out []domain.RemoteCandidate
	for c, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}
