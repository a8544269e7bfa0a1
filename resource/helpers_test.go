package resource

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeJSON writes v as JSON to dir/filename.
func writeJSON(t *testing.T, dir, filename string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0644))
}

func writeFile(t *testing.T, dir, filename, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(body), 0644))
}

func testMaterials() map[string]interface{} {
	return map[string]interface{}{
		"metal": map[string]interface{}{
			"T1": []map[string]interface{}{
				{"rowName": "bronze", "name": "Bronze", "slash": 0.3, "pierce": 0.2, "blunt": 0.4, "density": 8.8, "toughness": 40},
			},
			"T2": []map[string]interface{}{
				{"rowName": "iron", "name": "Iron", "slash": 0.5, "pierce": 0.4, "blunt": 0.6, "defense_blunt": 0.7, "density": 7.85, "toughness": 50, "fire": 0.2, "water": 0.4},
			},
		},
		"wood": map[string]interface{}{
			"T1": []map[string]interface{}{
				{"name": "Old Oak", "slash": 0.1, "pierce": 0.1, "blunt": 0.2, "density": 0.75, "toughness": 12},
			},
		},
	}
}

func testVolumes() []map[string]interface{} {
	return []map[string]interface{}{
		{"ArchetypeName": "Helmet", "ComponentName": "Outer", "Volume_cm3": 2100},
		{"ArchetypeName": "Helmet", "ComponentName": "Inner", "Volume_cm3": 1050},
		{"ArchetypeName": "Helmet", "ComponentName": "Binding", "Volume_cm3": 350},
		{"ArchetypeName": "Boots", "ComponentName": "Outer", "Volume_cm3": 1400},
		{"ArchetypeName": "Boots", "ComponentName": "Inner", "Volume_cm3": 700},
		{"ArchetypeName": "Boots", "ComponentName": "Binding", "Volume_cm3": 200},
	}
}

// setupDataDir creates a temp directory holding a material file and an
// armor volume table.
func setupDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeJSON(t, dir, "materials.json", testMaterials())
	writeJSON(t, dir, "ArmorVolumes.json", testVolumes())
	return dir
}
