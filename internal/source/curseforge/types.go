package curseforge

import "time"

// CurseForge API v1 response types
// API docs: https://docs.curseforge.com/rest-api/

// APIResponse wraps all CurseForge API responses
type APIResponse[T any] struct {
	Data T `json:"data"`
}

// PaginatedResponse wraps paginated CurseForge API responses
type PaginatedResponse[T any] struct {
	Data       T          `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination contains pagination info from CurseForge API
type Pagination struct {
	Index       int `json:"index"`
	PageSize    int `json:"pageSize"`
	ResultCount int `json:"resultCount"`
	TotalCount  int `json:"totalCount"`
}

// Mod represents a mod (project) from the CurseForge API
type Mod struct {
	ID                   int       `json:"id"`
	GameID               int       `json:"gameId"`
	Name                 string    `json:"name"`
	Slug                 string    `json:"slug"`
	Summary              string    `json:"summary"`
	ClassID              int       `json:"classId"`
	MainFileID           int       `json:"mainFileId"`
	LatestFiles          []File    `json:"latestFiles"`
	DateModified         time.Time `json:"dateModified"`
	AllowModDistribution *bool     `json:"allowModDistribution"`
}

// File represents a downloadable mod file
type File struct {
	ID              int              `json:"id"`
	GameID          int              `json:"gameId"`
	ModID           int              `json:"modId"`
	IsAvailable     bool             `json:"isAvailable"`
	DisplayName     string           `json:"displayName"`
	FileName        string           `json:"fileName"`
	ReleaseType     int              `json:"releaseType"` // 1=Release, 2=Beta, 3=Alpha
	FileStatus      int              `json:"fileStatus"`
	Hashes          []FileHash       `json:"hashes"`
	FileDate        time.Time        `json:"fileDate"`
	FileLength      int64            `json:"fileLength"`
	DownloadURL     string           `json:"downloadUrl"`
	GameVersions    []string         `json:"gameVersions"` // Mixes game versions with loader and side names
	Dependencies    []FileDependency `json:"dependencies"`
	IsServerPack    bool             `json:"isServerPack"`
	FileFingerprint int64            `json:"fileFingerprint"`
}

// FileHash contains hash info for a file
type FileHash struct {
	Value string `json:"value"`
	Algo  int    `json:"algo"` // 1=SHA1, 2=MD5
}

// FileDependency represents a file's dependency on another mod
type FileDependency struct {
	ModID        int `json:"modId"`
	RelationType int `json:"relationType"` // 1=EmbeddedLibrary, 2=OptionalDependency, 3=RequiredDependency, 4=Tool, 5=Incompatible, 6=Include
}

// FingerprintMatch is one exact match returned by the fingerprint endpoint
type FingerprintMatch struct {
	ID          int    `json:"id"` // Mod (project) id
	File        File   `json:"file"`
	LatestFiles []File `json:"latestFiles"`
}

// FingerprintMatchesResult is the payload of POST /v1/fingerprints
type FingerprintMatchesResult struct {
	IsCacheBuilt      bool               `json:"isCacheBuilt"`
	ExactMatches      []FingerprintMatch `json:"exactMatches"`
	ExactFingerprints []int64            `json:"exactFingerprints"`
	UnmatchedPrints   []int64            `json:"unmatchedFingerprints"`
}

// fingerprintRequest is the body of POST /v1/fingerprints
type fingerprintRequest struct {
	Fingerprints []uint32 `json:"fingerprints"`
}

// StringDownloadURL is the response for the download URL endpoint
type StringDownloadURL struct {
	Data string `json:"data"`
}

// Hash algorithms
const (
	HashAlgoSHA1 = 1
	HashAlgoMD5  = 2
)

// Release types
const (
	ReleaseTypeRelease = 1
	ReleaseTypeBeta    = 2
	ReleaseTypeAlpha   = 3
)

// Mod loader types
const (
	ModLoaderAny        = 0
	ModLoaderForge      = 1
	ModLoaderCauldron   = 2
	ModLoaderLiteLoader = 3
	ModLoaderFabric     = 4
	ModLoaderQuilt      = 5
	ModLoaderNeoForge   = 6
)

// Minecraft identifiers on CurseForge
const (
	GameIDMinecraft = 432
	ClassIDMods     = 6
)
