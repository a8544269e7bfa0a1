package resource

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Family names one volume table.
type Family string

const (
	FamilyArmor  Family = "armor"
	FamilyWeapon Family = "weapon"
	FamilyShield Family = "shield"
	FamilySiege  Family = "siege"
)

// Families lists every volume family in load order.
var Families = []Family{FamilyArmor, FamilyWeapon, FamilyShield, FamilySiege}

// ParseFamily maps a user supplied name onto a Family.
func ParseFamily(s string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Families {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// Component is one named part of an archetype and its volume in cm³.
type Component struct {
	Name   string  `json:"name"`
	Volume float64 `json:"volume_cm3"`
}

type volumeRecord struct {
	ArchetypeName string  `json:"ArchetypeName" yaml:"ArchetypeName" validate:"required"`
	ComponentName string  `json:"ComponentName" yaml:"ComponentName" validate:"required"`
	Volume        float64 `json:"Volume_cm3" yaml:"Volume_cm3" validate:"gt=0"`
}

type archetypeTable struct {
	name       string
	components []Component
	index      map[string]int // folded component name → position
}

type familyTable struct {
	mu         sync.RWMutex
	loaded     bool
	archetypes map[string]*archetypeTable // folded archetype name
	order      []string                   // canonical archetype names in file order
}

// VolumeStore holds the per-family component volume tables. Each family is
// read from disk at most once; later calls reuse the cached table.
type VolumeStore struct {
	dataPath string
	files    map[Family]string
	tables   map[Family]*familyTable

	// readFile is replaced in tests.
	readFile readFileFunc
}

// NewVolumeStore creates a store that reads family tables from
// dataPath/files[family]. Nothing is read until first use.
func NewVolumeStore(dataPath string, files map[Family]string) *VolumeStore {
	vs := &VolumeStore{
		dataPath: dataPath,
		files:    make(map[Family]string, len(files)),
		tables:   make(map[Family]*familyTable, len(files)),
	}
	for fam, file := range files {
		vs.files[fam] = file
		vs.tables[fam] = &familyTable{}
	}
	return vs
}

func (vs *VolumeStore) table(fam Family) (*familyTable, error) {
	t, ok := vs.tables[fam]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, fam)
	}
	return t, nil
}

// EnsureLoaded reads the family's table if it has not been read yet.
// Concurrent callers block until the first load finishes. A failed load
// leaves the family unloaded so a later call can try again.
func (vs *VolumeStore) EnsureLoaded(fam Family) error {
	t, err := vs.table(fam)
	if err != nil {
		return err
	}
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded {
		return nil
	}
	archetypes, order, err := vs.load(fam)
	if err != nil {
		return err
	}
	t.archetypes = archetypes
	t.order = order
	t.loaded = true
	return nil
}

// LoadAll eagerly loads every configured family.
func (vs *VolumeStore) LoadAll() error {
	for _, fam := range Families {
		if _, ok := vs.tables[fam]; !ok {
			continue
		}
		if err := vs.EnsureLoaded(fam); err != nil {
			return err
		}
	}
	return nil
}

// Loaded reports whether the family's table is cached.
func (vs *VolumeStore) Loaded(fam Family) bool {
	t, err := vs.table(fam)
	if err != nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loaded
}

func (vs *VolumeStore) load(fam Family) (map[string]*archetypeTable, []string, error) {
	path := filepath.Join(vs.dataPath, vs.files[fam])
	var recs []volumeRecord
	if err := decodeFile(vs.readFile, path, &recs); err != nil {
		return nil, nil, err
	}

	archetypes := make(map[string]*archetypeTable)
	var order []string
	for i, rec := range recs {
		if err := validate.Struct(rec); err != nil {
			return nil, nil, fmt.Errorf("%w: %s[%d]: %w", ErrMalformedData, path, i, err)
		}
		aName := strings.TrimSpace(rec.ArchetypeName)
		cName := strings.TrimSpace(rec.ComponentName)
		aKey := foldKey(aName)
		at, ok := archetypes[aKey]
		if !ok {
			at = &archetypeTable{name: aName, index: make(map[string]int)}
			archetypes[aKey] = at
			order = append(order, aName)
		}
		cKey := foldKey(cName)
		if _, dup := at.index[cKey]; dup {
			return nil, nil, fmt.Errorf("%w: %s: duplicate component %s/%s", ErrMalformedData, path, aName, cName)
		}
		at.index[cKey] = len(at.components)
		at.components = append(at.components, Component{Name: cName, Volume: rec.Volume})
	}
	return archetypes, order, nil
}

// archetype loads the family if needed and returns the archetype's table.
// The returned table is never mutated after load.
func (vs *VolumeStore) archetype(fam Family, archetype string) (*archetypeTable, error) {
	if err := vs.EnsureLoaded(fam); err != nil {
		return nil, err
	}
	t := vs.tables[fam]
	t.mu.RLock()
	at, ok := t.archetypes[foldKey(archetype)]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownArchetype, fam, archetype)
	}
	return at, nil
}

// VolumeOf returns the volume in cm³ of one component of an archetype.
func (vs *VolumeStore) VolumeOf(fam Family, archetype, component string) (float64, error) {
	at, err := vs.archetype(fam, archetype)
	if err != nil {
		return 0, err
	}
	i, ok := at.index[foldKey(component)]
	if !ok {
		return 0, fmt.Errorf("%w: %s %q has no %q", ErrUnknownComponent, fam, at.name, component)
	}
	return at.components[i].Volume, nil
}

// Components returns the archetype's components in table order.
func (vs *VolumeStore) Components(fam Family, archetype string) ([]Component, error) {
	at, err := vs.archetype(fam, archetype)
	if err != nil {
		return nil, err
	}
	out := make([]Component, len(at.components))
	copy(out, at.components)
	return out, nil
}

// CanonicalArchetype returns the archetype name as spelled in the table.
func (vs *VolumeStore) CanonicalArchetype(fam Family, archetype string) (string, error) {
	at, err := vs.archetype(fam, archetype)
	if err != nil {
		return "", err
	}
	return at.name, nil
}

// Archetypes returns the family's archetype names, sorted.
func (vs *VolumeStore) Archetypes(fam Family) ([]string, error) {
	if err := vs.EnsureLoaded(fam); err != nil {
		return nil, err
	}
	t := vs.tables[fam]
	t.mu.RLock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	t.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}
