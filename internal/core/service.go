package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
	"github.com/DonovanMods/mc-mod-manager/internal/linker"
	"github.com/DonovanMods/mc-mod-manager/internal/ratelimit"
	"github.com/DonovanMods/mc-mod-manager/internal/source"
	"github.com/DonovanMods/mc-mod-manager/internal/source/curseforge"
	"github.com/DonovanMods/mc-mod-manager/internal/source/modrinth"
	"github.com/DonovanMods/mc-mod-manager/internal/storage/cache"
	"github.com/DonovanMods/mc-mod-manager/internal/storage/config"
	"github.com/DonovanMods/mc-mod-manager/internal/storage/db"

	"go.uber.org/zap"
)

// DefaultUserAgent identifies catalog requests
const DefaultUserAgent = "DonovanMods/mc-mod-manager (github.com/DonovanMods/mc-mod-manager)"

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir string // Directory for configuration files
	DataDir   string // Directory for database and persistent data
	CacheDir  string // Default download staging area

	HTTPClient       *http.Client // Optional
	Logger           *zap.Logger  // Optional
	CurseForgeAPIKey string       // Overrides the stored key when set
	UserAgent        string
}

// Service wires configuration, storage and catalogs to the engine
type Service struct {
	config   *config.Config
	options  config.Options
	db       *db.DB
	staging  *cache.Cache
	registry *source.Registry
	limiter  *ratelimit.HostLimiter
	logger   *zap.Logger

	index        *Index
	resolver     *Resolver
	planner      *Planner
	orchestrator *Orchestrator

	tags        *TagStore
	aliases     map[string]string
	sourcesMu   sync.RWMutex
	fileSources map[string]domain.SourceSite

	configDir string
}

// NewService creates a new core service instance.
// An invalid configuration is fatal.
func NewService(cfg ServiceConfig) (*Service, error) {
	appConfig, err := config.Load(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	opts, err := appConfig.Options()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	stagingDir := cfg.CacheDir
	if appConfig.StagingPath != "" {
		stagingDir = appConfig.StagingPath
	}

	s := &Service{
		config:      appConfig,
		options:     opts,
		db:          database,
		staging:     cache.New(stagingDir),
		registry:    source.NewRegistry(),
		limiter:     ratelimit.New(opts.RequestsPerSecond, opts.MaxPerHost, 0),
		logger:      logger,
		resolver:    NewResolver(),
		tags:        NewTagStore(),
		aliases:     make(map[string]string),
		fileSources: make(map[string]domain.SourceSite),
		configDir:   cfg.ConfigDir,
	}

	if err := s.loadState(); err != nil {
		database.Close()
		return nil, err
	}

	if err := s.staging.Clean(); err != nil {
		logger.Warn("cleaning staging area", zap.String("path", stagingDir), zap.Error(err))
	}

	cfKey := cfg.CurseForgeAPIKey
	if cfKey == "" {
		if tok, err := database.GetToken(domain.SiteCurseforge); err == nil && tok != nil {
			cfKey = tok.APIKey
		}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	mrKey := ""
	if tok, err := database.GetToken(domain.SiteModrinth); err == nil && tok != nil {
		mrKey = tok.APIKey
	}
	s.registry.Register(curseforge.New(httpClient, cfKey, s.limiter))
	s.registry.Register(modrinth.New(httpClient, mrKey, userAgent, s.limiter))

	s.index = NewIndex(logger)
	s.index.SetDecorator(s.decorate)
	s.planner = NewPlanner(s.registry, NewMatcher(), logger)
	s.orchestrator = NewOrchestrator(OrchestratorConfig{
		Registry:   s.registry,
		Downloader: NewDownloader(httpClient),
		Staging:    s.staging,
		Linker:     linker.New(opts.Placement),
		Index:      s.index,
		Retained:   database,
		Sources:    s,
		Limiter:    s.limiter,
		Logger:     logger,
	})

	return s, nil
}

// loadState reads tags, aliases and known file sources from the database
func (s *Service) loadState() error {
	defined, err := s.db.DefinedTags()
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	for _, t := range defined {
		if err := s.tags.Define(t); err != nil {
			s.logger.Warn("skipping stored tag", zap.String("tag", t.String()), zap.Error(err))
		}
	}
	attachments, err := s.db.TagAttachments()
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	for _, a := range attachments {
		if err := s.tags.Attach(a.ModID, a.Tag); err != nil {
			s.logger.Warn("skipping stored tag attachment", zap.String("mod", a.ModID), zap.Error(err))
		}
	}

	if s.aliases, err = s.db.Aliases(); err != nil {
		return fmt.Errorf("loading aliases: %w", err)
	}
	if s.fileSources, err = s.db.FileSources(); err != nil {
		return fmt.Errorf("loading file sources: %w", err)
	}
	return nil
}

// decorate applies stored state to a freshly parsed record
func (s *Service) decorate(rec *domain.ModRecord) {
	rec.Tags = s.tags.Tags(rec.ModID)
	s.sourcesMu.RLock()
	site, ok := s.fileSources[rec.FileHash]
	s.sourcesMu.RUnlock()
	if ok && rec.Source == domain.SiteLocal {
		rec.Source = site
	}
}

// SaveFileSource persists the catalog a placed file came from and makes it
// visible to later scans in this process
func (s *Service) SaveFileSource(fileHash string, site domain.SourceSite) error {
	if err := s.db.SaveFileSource(fileHash, site); err != nil {
		return err
	}
	s.sourcesMu.Lock()
	s.fileSources[fileHash] = site
	s.sourcesMu.Unlock()
	return nil
}

// Close releases resources held by the service
func (s *Service) Close() error {
	_ = s.logger.Sync()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Config returns the loaded configuration
func (s *Service) Config() *config.Config {
	return s.config
}

// Options returns the configuration snapshot the engine runs with
func (s *Service) Options() config.Options {
	return s.options
}

// SaveConfig validates and persists the configuration
func (s *Service) SaveConfig() error {
	opts, err := s.config.Options()
	if err != nil {
		return err
	}
	if err := s.config.Save(s.configDir); err != nil {
		return err
	}
	s.options = opts
	return nil
}

// ConfigDir returns the configuration directory
func (s *Service) ConfigDir() string {
	return s.configDir
}

// Folder returns a configured folder by name; empty selects the default
func (s *Service) Folder(name string) (domain.Folder, error) {
	return s.config.Folder(name)
}

// RegisterSource adds a catalog client, replacing the one for the same site
func (s *Service) RegisterSource(client source.CatalogClient) {
	s.registry.Register(client)
}

// Registry returns the source registry
func (s *Service) Registry() *source.Registry {
	return s.registry
}

// Staging returns the download staging area
func (s *Service) Staging() *cache.Cache {
	return s.staging
}

// Scan starts a lazy scan of a folder
func (s *Service) Scan(ctx context.Context, folder domain.Folder) (*Scan, error) {
	return s.index.Scan(ctx, folder.Path)
}

// Records scans a folder and parses every file
func (s *Service) Records(ctx context.Context, folder domain.Folder) ([]domain.ModRecord, error) {
	scan, err := s.Scan(ctx, folder)
	if err != nil {
		return nil, err
	}
	return scan.Records(ctx)
}

// Resolve proposes duplicate demotions and reports relationship problems
func (s *Service) Resolve(records []domain.ModRecord) (DuplicateReport, RelationshipReport) {
	return s.resolver.Resolve(records)
}

// CommitDemotions applies confirmed duplicate demotions. Demoted files are
// registered for purge unless retention keeps them forever.
func (s *Service) CommitDemotions(ctx context.Context, groups []DuplicateGroup) ([]domain.ModRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	demoted, err := CommitDemotions(groups)
	if s.options.Retention != domain.RetainForever {
		for _, rec := range demoted {
			if rerr := s.db.RegisterRetained(rec.Path, rec.ModID, rec.Version); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}
	}
	return demoted, err
}

// MatchPolicy builds the match policy for a folder
func (s *Service) MatchPolicy(folder domain.Folder) (domain.MatchPolicy, error) {
	ignores, err := s.db.Ignores()
	if err != nil {
		return domain.MatchPolicy{}, fmt.Errorf("loading ignores: %w", err)
	}
	return domain.MatchPolicy{
		GameVersionRule: s.options.GameVersionRule,
		GameVersions:    folder.GameVersions(),
		Ignores:         ignores,
	}, nil
}

// Check plans updates for records in folder
func (s *Service) Check(ctx context.Context, folder domain.Folder, records []domain.ModRecord) (*Plan, error) {
	policy, err := s.MatchPolicy(folder)
	if err != nil {
		return nil, err
	}
	if folder.Loader != "" {
		records = slices.Clone(records)
		for i := range records {
			if len(records[i].Loaders) == 0 {
				records[i].Loaders = []string{folder.Loader}
			}
		}
	}
	return s.planner.Plan(ctx, records, policy, s.options.Sources)
}

// CheckWritable fails with ErrNoWritePermission when files cannot be created in dir
func CheckWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".mcmm-write-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrNoWritePermission, dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// ExecuteOptions returns batch bounds from the configuration
func (s *Service) ExecuteOptions() ExecuteOptions {
	return ExecuteOptions{
		MaxParallel:        s.options.MaxParallel,
		ThreadsPerDownload: s.options.ThreadsPerDownload,
		MaxPerHost:         s.options.MaxPerHost,
		Retention:          s.options.Retention,
	}
}

// Update starts a download batch for actions planned against folder.
// The folder must be writable before anything starts.
func (s *Service) Update(ctx context.Context, folder domain.Folder, actions []domain.UpdateAction) (*Batch, error) {
	if _, err := config.ParseFolderPath(folder.Path); err != nil {
		return nil, err
	}
	if err := CheckWritable(folder.Path); err != nil {
		return nil, err
	}
	return s.orchestrator.Execute(ctx, actions, s.ExecuteOptions()), nil
}

// Retry re-runs failed actions from a previous batch
func (s *Service) Retry(ctx context.Context, results []ActionResult) *Batch {
	return s.orchestrator.Retry(ctx, results, s.ExecuteOptions())
}

// SetEnabled enables or disables a mod file
func (s *Service) SetEnabled(record domain.ModRecord, enabled bool) (domain.ModRecord, error) {
	return SetEnabled(record, enabled)
}

// Purge deletes superseded files in folder. By default only files retained
// by a previous update or demotion are removed; all removes every Old file.
func (s *Service) Purge(ctx context.Context, folder domain.Folder, all bool) ([]string, error) {
	var paths []string
	if all {
		records, err := s.Records(ctx, folder)
		if err != nil {
			return nil, err
		}
		paths = OldFiles(records)
	} else {
		retained, err := s.db.RetainedFiles()
		if err != nil {
			return nil, fmt.Errorf("loading retained files: %w", err)
		}
		dir := filepath.Clean(folder.Path)
		for _, r := range retained {
			if filepath.Dir(r.Path) == dir {
				paths = append(paths, r.Path)
			}
		}
	}

	purged, err := PurgeFiles(paths)
	for _, p := range purged {
		if ferr := s.db.ForgetRetained(p); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	return purged, err
}

// RetainedFiles lists files kept until purge
func (s *Service) RetainedFiles() ([]db.RetainedFile, error) {
	return s.db.RetainedFiles()
}

// PreviewRenames renders pattern for records and validates the result.
// The renames are returned even when validation fails.
func (s *Service) PreviewRenames(pattern string, records []domain.ModRecord) ([]Rename, error) {
	tokens, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	renames := PlanRenames(tokens, records)
	return renames, ValidateRenames(renames)
}

// RenameBatch renames records by pattern and records the pattern in history
func (s *Service) RenameBatch(pattern string, records []domain.ModRecord) ([]domain.ModRecord, error) {
	tokens, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	renamed, err := ApplyRenames(PlanRenames(tokens, records))
	if err != nil {
		return nil, err
	}
	if err := s.db.RecordRenamePattern(pattern); err != nil {
		s.logger.Warn("recording rename pattern", zap.Error(err))
	}
	return renamed, nil
}

// RenameHistory returns recently used patterns, newest first
func (s *Service) RenameHistory() ([]string, error) {
	return s.db.RenameHistory()
}

// DefineTag creates a tag definition
func (s *Service) DefineTag(tag domain.TagRef) error {
	if err := s.tags.Define(tag); err != nil {
		return err
	}
	return s.db.DefineTag(tag)
}

// UndefineTag removes a tag and detaches it from every mod
func (s *Service) UndefineTag(tag domain.TagRef) error {
	if !s.tags.IsDefined(tag) {
		return fmt.Errorf("%w: %s", domain.ErrTagNotFound, tag)
	}
	if err := s.db.UndefineTag(tag); err != nil {
		return err
	}
	s.tags.Undefine(tag)
	return nil
}

// AttachTag labels a mod with a defined tag
func (s *Service) AttachTag(modID string, tag domain.TagRef) error {
	if err := s.tags.Attach(modID, tag); err != nil {
		return err
	}
	return s.db.AttachTag(modID, tag)
}

// DetachTag removes a tag from a mod
func (s *Service) DetachTag(modID string, tag domain.TagRef) error {
	if !s.tags.Detach(modID, tag) {
		return nil
	}
	return s.db.DetachTag(modID, tag)
}

// DefinedTags lists every tag definition
func (s *Service) DefinedTags() []domain.TagRef {
	return s.tags.Defined()
}

// Tags returns the tags attached to a mod
func (s *Service) Tags(modID string) []domain.TagRef {
	return s.tags.Tags(modID)
}

// VisibleTags filters tags to the configured display categories
func (s *Service) VisibleTags(tags []domain.TagRef) []domain.TagRef {
	if len(s.options.ShowTagCategories) == 0 {
		return tags
	}
	var out []domain.TagRef
	for _, t := range tags {
		if slices.Contains(s.options.ShowTagCategories, t.Category) {
			out = append(out, t)
		}
	}
	return out
}

// SetAlias sets a display alias for a mod; empty removes it
func (s *Service) SetAlias(modID, alias string) error {
	if err := s.db.SetAlias(modID, alias); err != nil {
		return err
	}
	if alias == "" {
		delete(s.aliases, modID)
	} else {
		s.aliases[modID] = alias
	}
	return nil
}

// DisplayName returns a record's alias, falling back to its name
func (s *Service) DisplayName(rec domain.ModRecord) string {
	if alias, ok := s.aliases[rec.ModID]; ok {
		return alias
	}
	return rec.Name()
}

// Aliases returns every alias by mod id
func (s *Service) Aliases() map[string]string {
	return s.aliases
}

// Ignore excludes versions of a mod from update checks
func (s *Service) Ignore(ig domain.Ignore) error {
	return s.db.AddIgnore(ig)
}

// Ignores lists every update ignore
func (s *Service) Ignores() ([]domain.Ignore, error) {
	return s.db.Ignores()
}

// ClearIgnores removes ignores for modID, or all of them when modID is empty
func (s *Service) ClearIgnores(modID string) (int64, error) {
	return s.db.ClearIgnores(modID)
}

// apiKeySetter is implemented by catalogs that accept an API key
type apiKeySetter interface {
	SetAPIKey(key string)
}

// SaveAPIKey stores an API key for a catalog and applies it immediately
func (s *Service) SaveAPIKey(site domain.SourceSite, key string) error {
	if err := s.db.SaveToken(site, key); err != nil {
		return err
	}
	if client, err := s.registry.Get(site); err == nil {
		if setter, ok := client.(apiKeySetter); ok {
			setter.SetAPIKey(key)
		}
	}
	return nil
}

// DeleteAPIKey removes a stored API key
func (s *Service) DeleteAPIKey(site domain.SourceSite) error {
	if err := s.db.DeleteToken(site); err != nil {
		return err
	}
	if client, err := s.registry.Get(site); err == nil {
		if setter, ok := client.(apiKeySetter); ok {
			setter.SetAPIKey("")
		}
	}
	return nil
}

// StoredAPIKey returns the stored key record for a catalog, or nil
func (s *Service) StoredAPIKey(site domain.SourceSite) (*db.StoredToken, error) {
	return s.db.GetToken(site)
}
