package core

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/id"
	"github.com/DonovanMods/mc-mod-manager/internal/source"

	"go.uber.org/zap"
)

// PlanIssue records a record that could not be planned
type PlanIssue struct {
	Record domain.ModRecord
	Site   domain.SourceSite // Zero when the issue is not tied to one catalog
	Err    error
}

// Plan is the result of an update check
type Plan struct {
	Actions []domain.UpdateAction
	Issues  []PlanIssue
	Checked int // Active records considered
}

// Err joins every issue into one error, or nil when there are none
func (p *Plan) Err() error {
	if len(p.Issues) == 0 {
		return nil
	}
	errs := make([]error, 0, len(p.Issues))
	for _, is := range p.Issues {
		errs = append(errs, fmt.Errorf("%s: %w", is.Record.FileName, is.Err))
	}
	return fmt.Errorf("update check had %d issue(s): %w", len(errs), errors.Join(errs...))
}

// Planner finds updates for installed records across catalogs
type Planner struct {
	registry *source.Registry
	matcher  *Matcher
	logger   *zap.Logger
}

// NewPlanner creates a new planner
func NewPlanner(registry *source.Registry, matcher *Matcher, logger *zap.Logger) *Planner {
	if matcher == nil {
		matcher = NewMatcher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{registry: registry, matcher: matcher, logger: logger}
}

// Plan produces at most one action per Active record. Catalogs are consulted
// in selector order, starting with the record's own site; the first catalog
// yielding a match wins. Query failures are recorded as issues and the next
// catalog is tried. The returned error is reserved for cancellation.
func (p *Planner) Plan(ctx context.Context, records []domain.ModRecord, policy domain.MatchPolicy, selector domain.SourceSelector) (*Plan, error) {
	plan := &Plan{}
	targets := make(map[string]string) // target path -> planning record path

	for _, rec := range records {
		if rec.State != domain.StateActive {
			continue
		}

		select {
		case <-ctx.Done():
			return plan, ctx.Err()
		default:
		}

		plan.Checked++
		query := source.QueryFor(rec, policy.GameVersions)

		for _, client := range p.registry.Ordered(selector.Order(rec.Source)) {
			site := client.ID()
			best, ok, err := p.matchFrom(ctx, client, query, rec, policy)
			if ctx.Err() != nil {
				return plan, ctx.Err()
			}
			if err != nil {
				p.logger.Warn("version query failed",
					zap.String("mod", rec.ModID), zap.Stringer("site", site), zap.Error(err))
				plan.Issues = append(plan.Issues, PlanIssue{
					Record: rec,
					Site:   site,
					Err:    fmt.Errorf("%w: %s: %w", domain.ErrVersionQuery, client.Name(), err),
				})
				continue
			}
			if !ok {
				continue
			}

			target := filepath.Join(filepath.Dir(rec.Path), filepath.Base(best.FileName))
			if err := p.checkTarget(target, rec, targets); err != nil {
				plan.Issues = append(plan.Issues, PlanIssue{Record: rec, Site: site, Err: err})
				break
			}
			targets[target] = rec.Path

			plan.Actions = append(plan.Actions, domain.UpdateAction{
				ID:         id.MustGenerate("upd"),
				Source:     rec,
				Candidate:  best,
				TargetPath: target,
			})
			p.logger.Debug("planned update",
				zap.String("mod", rec.ModID),
				zap.String("from", rec.Version),
				zap.String("to", best.Version),
				zap.Stringer("site", site))
			break
		}
	}

	return plan, nil
}

// matchFrom runs one catalog search through the matcher. The search error,
// if any, is captured while the matcher consumes the sequence.
func (p *Planner) matchFrom(ctx context.Context, client source.CatalogClient, query source.Query, rec domain.ModRecord, policy domain.MatchPolicy) (domain.RemoteCandidate, bool, error) {
	var searchErr error
	candidates := iter.Seq[domain.RemoteCandidate](func(yield func(domain.RemoteCandidate) bool) {
		for c, err := range client.Search(ctx, query) {
			if err != nil {
				searchErr = err
				return
			}
			if !yield(c) {
				return
			}
		}
	})

	best, ok := p.matcher.Match(rec, candidates, policy)
	if searchErr != nil {
		return domain.RemoteCandidate{}, false, searchErr
	}
	return best, ok, nil
}

// checkTarget rejects a target already claimed by an earlier action, or
// occupied by a file other than the one being replaced
func (p *Planner) checkTarget(target string, rec domain.ModRecord, targets map[string]string) error {
	if owner, taken := targets[target]; taken {
		return fmt.Errorf("%w: %s is already the target of %s", domain.ErrTargetCollision, filepath.Base(target), filepath.Base(owner))
	}
	if target == rec.Path {
		return nil
	}
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%w: %s already exists", domain.ErrTargetCollision, filepath.Base(target))
	}
	return nil
}
