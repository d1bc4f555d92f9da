package core

import (
	"regexp"
	"strings"

	"github.com/DonovanMods/mc-mod-manager/internal/domain"
)

// versionStart matches the separator before the first version-like component,
// e.g. "-0.5.3" in "sodium-fabric-0.5.3+mc1.20.1" or "_v2" in "Foo_v2.1".
var versionStart = regexp.MustCompile(`[-_ +][vV]?\d`)

// GuessModName derives a display name from a jar file name for files without
// metadata: the suffix chain and everything from the first version component
// on is dropped. "sodium-fabric-0.5.3+mc1.20.1.jar.disabled" -> "sodium-fabric".
func GuessModName(fileName string) string {
	base, _ := domain.SplitFileName(fileName)

	if loc := versionStart.FindStringIndex(base); loc != nil && loc[0] > 0 {
		base = base[:loc[0]]
	}

	return strings.TrimRight(base, "-_ +")
}
