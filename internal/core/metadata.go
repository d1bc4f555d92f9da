package core

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/pelletier/go-toml/v2"
)

// Metadata files in the order they are consulted
const (
	fabricModJSON  = "fabric.mod.json"
	quiltModJSON   = "quilt.mod.json"
	neoForgeToml   = "META-INF/neoforge.mods.toml"
	forgeModsToml  = "META-INF/mods.toml"
	legacyModInfo  = "mcmod.info"
	manifestPath   = "META-INF/MANIFEST.MF"
	jarVersionVar  = "${file.jarVersion}"
	minecraftModID = "minecraft"
)

// platformIDs are loader and runtime ids, never treated as mod relationships
var platformIDs = map[string]bool{
	minecraftModID:  true,
	"java":          true,
	"fabricloader":  true,
	"fabric-loader": true,
	"forge":         true,
	"neoforge":      true,
	"quilt_loader":  true,
}

// modMetadata is what an archive declares about itself
type modMetadata struct {
	ModID         string
	DisplayName   string
	Version       string
	Loaders       []string
	GameVersions  []string
	GameRange     string
	Relationships []domain.Relationship
}

// readMetadata finds and parses the first recognized metadata file in a jar.
// Returns nil without error when the archive has no metadata.
func readMetadata(zr *zip.Reader) (*modMetadata, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	parsers := []struct {
		name  string
		parse func([]byte, map[string]*zip.File) (*modMetadata, error)
	}{
		{fabricModJSON, parseFabricMetadata},
		{quiltModJSON, parseQuiltMetadata},
		{neoForgeToml, parseNeoForgeMetadata},
		{forgeModsToml, parseForgeMetadata},
		{legacyModInfo, parseLegacyMetadata},
	}

	for _, p := range parsers {
		f, ok := files[p.name]
		if !ok {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p.name, err)
		}
		meta, err := p.parse(data, files)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p.name, err)
		}
		if meta.ModID == "" {
			return nil, fmt.Errorf("parsing %s: missing mod id", p.name)
		}
		return meta, nil
	}

	return nil, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// stringOrList decodes a JSON string or array of strings.
// Alternatives in a list are joined as "a || b".
type stringOrList string

func (s *stringOrList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = stringOrList(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = stringOrList(strings.Join(many, " || "))
	return nil
}

type fabricMod struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Version   string                  `json:"version"`
	Depends   map[string]stringOrList `json:"depends"`
	Breaks    map[string]stringOrList `json:"breaks"`
	Conflicts map[string]stringOrList `json:"conflicts"`
}

func parseFabricMetadata(data []byte, _ map[string]*zip.File) (*modMetadata, error) {
	var mod fabricMod
	if err := json.Unmarshal(trimBOM(data), &mod); err != nil {
		return nil, err
	}

	meta := &modMetadata{
		ModID:       mod.ID,
		DisplayName: mod.Name,
		Version:     mod.Version,
		Loaders:     []string{"fabric"},
	}
	if mc, ok := mod.Depends[minecraftModID]; ok {
		meta.GameRange = string(mc)
		meta.GameVersions = gameVersionsFromConstraint(meta.GameRange)
	}
	meta.Relationships = append(meta.Relationships, relationsFromMap(domain.RelationDepends, mod.Depends)...)
	meta.Relationships = append(meta.Relationships, relationsFromMap(domain.RelationBreaks, mod.Breaks)...)
	meta.Relationships = append(meta.Relationships, relationsFromMap(domain.RelationConflicts, mod.Conflicts)...)
	return meta, nil
}

func relationsFromMap(kind domain.RelationKind, m map[string]stringOrList) []domain.Relationship {
	var out []domain.Relationship
	for _, id := range slices.Sorted(maps.Keys(m)) {
		if platformIDs[id] {
			continue
		}
		out = append(out, domain.Relationship{Kind: kind, TargetModID: id, Constraint: string(m[id])})
	}
	return out
}

type quiltDependency struct {
	ID       string
	Versions string
}

func (d *quiltDependency) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		d.ID = id
		return nil
	}
	var obj struct {
		ID       string       `json:"id"`
		Versions stringOrList `json:"versions"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	d.ID = obj.ID
	d.Versions = string(obj.Versions)
	return nil
}

type quiltMod struct {
	Loader struct {
		ID       string `json:"id"`
		Version  string `json:"version"`
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Depends []quiltDependency `json:"depends"`
		Breaks  []quiltDependency `json:"breaks"`
	} `json:"quilt_loader"`
}

func parseQuiltMetadata(data []byte, _ map[string]*zip.File) (*modMetadata, error) {
	var mod quiltMod
	if err := json.Unmarshal(trimBOM(data), &mod); err != nil {
		return nil, err
	}

	meta := &modMetadata{
		ModID:       mod.Loader.ID,
		DisplayName: mod.Loader.Metadata.Name,
		Version:     mod.Loader.Version,
		Loaders:     []string{"quilt"},
	}
	add := func(kind domain.RelationKind, deps []quiltDependency) {
		for _, d := range deps {
			if d.ID == minecraftModID && kind == domain.RelationDepends {
				meta.GameRange = d.Versions
				meta.GameVersions = gameVersionsFromConstraint(d.Versions)
			}
			if d.ID == "" || platformIDs[d.ID] {
				continue
			}
			meta.Relationships = append(meta.Relationships, domain.Relationship{Kind: kind, TargetModID: d.ID, Constraint: d.Versions})
		}
	}
	add(domain.RelationDepends, mod.Loader.Depends)
	add(domain.RelationBreaks, mod.Loader.Breaks)
	return meta, nil
}

type modsToml struct {
	ModLoader string `toml:"modLoader"`
	Mods      []struct {
		ModID       string `toml:"modId"`
		Version     string `toml:"version"`
		DisplayName string `toml:"displayName"`
	} `toml:"mods"`
	Dependencies map[string][]tomlDependency `toml:"dependencies"`
}

type tomlDependency struct {
	ModID        string `toml:"modId"`
	Mandatory    *bool  `toml:"mandatory"`
	Type         string `toml:"type"` // NeoForge: required, optional, incompatible, discouraged
	VersionRange string `toml:"versionRange"`
}

func parseForgeMetadata(data []byte, files map[string]*zip.File) (*modMetadata, error) {
	return parseModsToml(data, files, false)
}

func parseNeoForgeMetadata(data []byte, files map[string]*zip.File) (*modMetadata, error) {
	return parseModsToml(data, files, true)
}

func parseModsToml(data []byte, files map[string]*zip.File, neoForge bool) (*modMetadata, error) {
	var doc modsToml
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Mods) == 0 {
		return nil, fmt.Errorf("no [[mods]] entry")
	}

	// Multi-mod jars describe their primary mod first
	primary := doc.Mods[0]
	meta := &modMetadata{
		ModID:       primary.ModID,
		DisplayName: primary.DisplayName,
		Version:     primary.Version,
	}
	if meta.Version == jarVersionVar {
		meta.Version = manifestVersion(files)
	}

	for _, dep := range doc.Dependencies[primary.ModID] {
		if dep.ModID == "neoforge" {
			neoForge = true
		}
		if dep.ModID == minecraftModID {
			meta.GameRange = dep.VersionRange
			meta.GameVersions = gameVersionsFromConstraint(dep.VersionRange)
			continue
		}
		if platformIDs[dep.ModID] || dep.ModID == "" {
			continue
		}

		var kind domain.RelationKind
		switch strings.ToLower(dep.Type) {
		case "incompatible":
			kind = domain.RelationBreaks
		case "discouraged":
			kind = domain.RelationConflicts
		case "required":
			kind = domain.RelationDepends
		case "optional":
			continue
		default:
			if dep.Mandatory == nil || !*dep.Mandatory {
				continue
			}
			kind = domain.RelationDepends
		}
		meta.Relationships = append(meta.Relationships, domain.Relationship{
			Kind:        kind,
			TargetModID: dep.ModID,
			Constraint:  dep.VersionRange,
		})
	}

	if neoForge {
		meta.Loaders = []string{"neoforge"}
	} else {
		meta.Loaders = []string{"forge"}
	}
	return meta, nil
}

// manifestVersion reads Implementation-Version from the jar manifest
func manifestVersion(files map[string]*zip.File) string {
	f, ok := files[manifestPath]
	if !ok {
		return ""
	}
	data, err := readZipFile(f)
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), "Implementation-Version:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// legacyModEntry mirrors one entry of a pre-1.13 mcmod.info.
// Its dependency lists are resolved by Forge at runtime and are not read.
type legacyModEntry struct {
	ModID     string `json:"modid"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	McVersion string `json:"mcversion"`
}

func parseLegacyMetadata(data []byte, _ map[string]*zip.File) (*modMetadata, error) {
	data = trimBOM(data)

	var entries []legacyModEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		var wrapped struct {
			ModList []legacyModEntry `json:"modList"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, err
		}
		entries = wrapped.ModList
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty mod list")
	}

	e := entries[0]
	meta := &modMetadata{
		ModID:       e.ModID,
		DisplayName: e.Name,
		Version:     e.Version,
		Loaders:     []string{"forge"},
	}
	if e.McVersion != "" {
		meta.GameVersions = []string{e.McVersion}
	}
	return meta, nil
}

func trimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
}

// gameVersionToken stops before wildcard components, so "1.20.x" yields "1.20"
var gameVersionToken = regexp.MustCompile(`\d+(?:\.\d+)*(?:-[a-zA-Z][\w.]*)?`)

// gameVersionsFromConstraint extracts the lowest game version of each
// alternative in a Minecraft constraint: ">=1.20 <1.21" -> [1.20],
// "[1.19.2,1.20)" -> [1.19.2], "1.20.x || 1.21" -> [1.20 1.21].
func gameVersionsFromConstraint(c string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	for _, alt := range strings.Split(c, "||") {
		alt = strings.TrimSpace(alt)
		if alt == "" || alt == "*" {
			continue
		}

		// Maven range: the lower bound, or the upper bound when open below
		if alt[0] == '[' || alt[0] == '(' {
			for _, r := range splitMavenRanges(alt) {
				lower, upper, _ := strings.Cut(strings.Trim(r, "[]() "), ",")
				if strings.TrimSpace(lower) != "" {
					add(gameVersionToken.FindString(lower))
				} else if strings.HasSuffix(r, "]") {
					add(gameVersionToken.FindString(upper))
				}
			}
			continue
		}

		for _, field := range strings.Fields(alt) {
			if strings.HasPrefix(field, "<") {
				continue
			}
			field = strings.TrimLeft(field, ">=~^")
			add(gameVersionToken.FindString(field))
		}
	}
	return out
}

// splitMavenRanges splits "[1.0,2.0),[3.0,)" into its ranges
func splitMavenRanges(s string) []string {
	var out []string
	start := -1
	for i, ch := range s {
		switch ch {
		case '[', '(':
			start = i
		case ']', ')':
			if start >= 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		}
	}
	return out
}
