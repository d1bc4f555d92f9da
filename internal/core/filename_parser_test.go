package core_test

import (
	"testing"

	"github.com/DonovanMods/mc-mod-manager/internal/core"

	"github.com/stretchr/testify/assert"
)

func TestGuessModName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"modrinth style", "sodium-fabric-0.5.3+mc1.20.1.jar", "sodium-fabric"},
		{"game version first", "jei-1.20.1-forge-15.2.0.27.jar", "jei"},
		{"underscores", "Xaeros_Minimap_23.9.7_Fabric_1.20.jar", "Xaeros_Minimap"},
		{"v prefix", "BetterF3-v7.0.1.jar", "BetterF3"},
		{"disabled suffix", "create-0.5.1.jar.disabled", "create"},
		{"old suffix", "lithium-0.11.jar.old", "lithium"},
		{"no version", "my-cool-mod.jar", "my-cool-mod"},
		{"leading digit kept", "1.20-utils.jar", "1.20-utils"},
		{"spaces", "Cool Mod 2.0.jar", "Cool Mod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.GuessModName(tt.filename))
		})
	}
}
