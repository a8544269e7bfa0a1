package resource

import (
	"path/filepath"
)

// Files names the data files read from DataPath.
type Files struct {
	Materials   string
	BannedNames string
	Volumes     map[Family]string
}

// DefaultFiles returns the file names used when none are configured.
func DefaultFiles() Files {
	return Files{
		Materials:   "materials.json",
		BannedNames: "banned_names.txt",
		Volumes: map[Family]string{
			FamilyArmor:  "ArmorVolumes.json",
			FamilyWeapon: "WeaponVolumes.json",
			FamilyShield: "ShieldVolumes.json",
			FamilySiege:  "SiegeVolumes.json",
		},
	}
}

// ResourceLoader owns every table read from DataPath. Materials and banned
// names are read by Load; volume tables are read lazily per family unless
// EagerVolumes is set.
type ResourceLoader struct {
	DataPath     string
	Files        Files
	EagerVolumes bool

	Materials   *Catalog
	Volumes     *VolumeStore
	BannedNames *BannedNames

	readFile readFileFunc
}

// NewLoader creates a loader rooted at dataPath.
func NewLoader(dataPath string, files Files) *ResourceLoader {
	return &ResourceLoader{
		DataPath: dataPath,
		Files:    files,
		Volumes:  NewVolumeStore(dataPath, files.Volumes),
	}
}

// Load reads the material catalog and banned-name list, then the volume
// tables when EagerVolumes is set.
func (rl *ResourceLoader) Load() error {
	loaders := []func() error{
		rl.loadMaterials,
		rl.loadBannedNames,
	}
	if rl.EagerVolumes {
		loaders = append(loaders, rl.Volumes.LoadAll)
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

func (rl *ResourceLoader) path(file string) string {
	return filepath.Join(rl.DataPath, file)
}

func (rl *ResourceLoader) loadMaterials() error {
	c, err := loadCatalog(rl.readFile, rl.path(rl.Files.Materials))
	if err != nil {
		return err
	}
	rl.Materials = c
	return nil
}

func (rl *ResourceLoader) loadBannedNames() error {
	if rl.Files.BannedNames == "" {
		rl.BannedNames = NewBannedNames()
		return nil
	}
	read := rl.readFile
	if read == nil {
		read = osReadFile
	}
	b, err := loadBannedNames(read, rl.path(rl.Files.BannedNames))
	if err != nil {
		return err
	}
	rl.BannedNames = b
	return nil
}
