package resource

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Material is one crafting material. Values are immutable after load.
type Material struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Family string `json:"family"`
	Tier   int    `json:"tier"`

	Density   float64 `json:"density"`   // g/cm³
	Toughness float64 `json:"toughness"` // dimensionless

	OffenseSlash  float64 `json:"offense_slash"`
	OffensePierce float64 `json:"offense_pierce"`
	OffenseBlunt  float64 `json:"offense_blunt"`
	DefenseSlash  float64 `json:"defense_slash"`
	DefensePierce float64 `json:"defense_pierce"`
	DefenseBlunt  float64 `json:"defense_blunt"`

	Fire  float64 `json:"fire"`
	Water float64 `json:"water"`
	Wind  float64 `json:"wind"`
	Earth float64 `json:"earth"`

	HeatRetention float64 `json:"heat_retention"`
}

// ElementalMean returns the mean of the four elemental values.
func (m *Material) ElementalMean() float64 {
	return (m.Fire + m.Water + m.Wind + m.Earth) / 4
}

// materialRecord is the on-disk shape. Defense values are optional and
// fall back to the matching offense value.
type materialRecord struct {
	RowName       string   `json:"rowName" yaml:"rowName"`
	Name          string   `json:"name" yaml:"name" validate:"required"`
	Slash         float64  `json:"slash" yaml:"slash"`
	Pierce        float64  `json:"pierce" yaml:"pierce"`
	Blunt         float64  `json:"blunt" yaml:"blunt"`
	DefenseSlash  *float64 `json:"defense_slash" yaml:"defense_slash"`
	DefensePierce *float64 `json:"defense_pierce" yaml:"defense_pierce"`
	DefenseBlunt  *float64 `json:"defense_blunt" yaml:"defense_blunt"`
	Fire          float64  `json:"fire" yaml:"fire"`
	Water         float64  `json:"water" yaml:"water"`
	Wind          float64  `json:"wind" yaml:"wind"`
	Earth         float64  `json:"earth" yaml:"earth"`
	Density       float64  `json:"density" yaml:"density" validate:"gt=0"`
	Toughness     float64  `json:"toughness" yaml:"toughness" validate:"gte=0"`
	HeatRetention float64  `json:"heat_retention" yaml:"heat_retention"`
}

// materialFile maps family → tier key ("T1".."T5") → records.
type materialFile map[string]map[string][]materialRecord

func orOffense(def *float64, off float64) float64 {
	if def != nil {
		return *def
	}
	return off
}

// parseTier turns "T5" / "t5" into 5; anything else is tier 0.
func parseTier(key string) int {
	if len(key) < 2 || (key[0] != 'T' && key[0] != 't') {
		return 0
	}
	n, err := strconv.Atoi(key[1:])
	if err != nil {
		return 0
	}
	return n
}

// Catalog is the read-only material table. Lookups are safe for
// concurrent use because nothing mutates the maps after LoadCatalog.
type Catalog struct {
	byID     map[string]*Material
	byName   map[string]*Material // folded name → material
	families map[string][]*Material
	ordered  []*Material

	suggestions *expirable.LRU[string, []string]
}

const (
	suggestionCacheSize = 256
	suggestionCacheTTL  = 10 * time.Minute
	maxSuggestions      = 3
)

// LoadCatalog reads the material file at path.
func LoadCatalog(path string) (*Catalog, error) {
	return loadCatalog(nil, path)
}

func loadCatalog(read readFileFunc, path string) (*Catalog, error) {
	var f materialFile
	if err := decodeFile(read, path, &f); err != nil {
		return nil, err
	}
	return buildCatalog(f, path)
}

func buildCatalog(f materialFile, source string) (*Catalog, error) {
	c := &Catalog{
		byID:        make(map[string]*Material),
		byName:      make(map[string]*Material),
		families:    make(map[string][]*Material),
		suggestions: expirable.NewLRU[string, []string](suggestionCacheSize, nil, suggestionCacheTTL),
	}

	familyNames := make([]string, 0, len(f))
	for fam := range f {
		familyNames = append(familyNames, fam)
	}
	sort.Strings(familyNames)

	for _, fam := range familyNames {
		tiers := f[fam]
		tierKeys := make([]string, 0, len(tiers))
		for k := range tiers {
			tierKeys = append(tierKeys, k)
		}
		sort.Slice(tierKeys, func(i, j int) bool {
			ti, tj := parseTier(tierKeys[i]), parseTier(tierKeys[j])
			if ti != tj {
				return ti < tj
			}
			return tierKeys[i] < tierKeys[j]
		})

		for _, tk := range tierKeys {
			for i, rec := range tiers[tk] {
				if err := validate.Struct(rec); err != nil {
					return nil, fmt.Errorf("%w: %s: %s/%s[%d]: %w", ErrMalformedData, source, fam, tk, i, err)
				}
				m := &Material{
					ID:            rec.RowName,
					Name:          strings.TrimSpace(rec.Name),
					Family:        fam,
					Tier:          parseTier(tk),
					Density:       rec.Density,
					Toughness:     rec.Toughness,
					OffenseSlash:  rec.Slash,
					OffensePierce: rec.Pierce,
					OffenseBlunt:  rec.Blunt,
					DefenseSlash:  orOffense(rec.DefenseSlash, rec.Slash),
					DefensePierce: orOffense(rec.DefensePierce, rec.Pierce),
					DefenseBlunt:  orOffense(rec.DefenseBlunt, rec.Blunt),
					Fire:          rec.Fire,
					Water:         rec.Water,
					Wind:          rec.Wind,
					Earth:         rec.Earth,
					HeatRetention: rec.HeatRetention,
				}
				if m.ID == "" {
					m.ID = slug(m.Name)
				}
				if _, dup := c.byID[m.ID]; dup {
					return nil, fmt.Errorf("%w: %s: duplicate material id %q", ErrMalformedData, source, m.ID)
				}
				key := foldKey(m.Name)
				if _, dup := c.byName[key]; dup {
					return nil, fmt.Errorf("%w: %s: duplicate material name %q", ErrMalformedData, source, m.Name)
				}
				c.byID[m.ID] = m
				c.byName[key] = m
				c.families[fam] = append(c.families[fam], m)
				c.ordered = append(c.ordered, m)
			}
		}
	}
	return c, nil
}

// Count returns the number of materials loaded.
func (c *Catalog) Count() int {
	return len(c.ordered)
}

// ByID returns the material with the given row id, or nil.
func (c *Catalog) ByID(id string) *Material {
	if m, ok := c.byID[id]; ok {
		return m
	}
	return c.byID[slug(id)]
}

// ByName returns the material with the given display name (case-insensitive), or nil.
func (c *Catalog) ByName(name string) *Material {
	return c.byName[foldKey(name)]
}

// Lookup resolves a display name or row id. Unknown keys yield an error
// wrapping ErrMaterialNotFound that carries close matches, if any.
func (c *Catalog) Lookup(key string) (*Material, error) {
	if m := c.ByName(key); m != nil {
		return m, nil
	}
	if m := c.ByID(key); m != nil {
		return m, nil
	}
	if s := c.Suggest(key, maxSuggestions); len(s) > 0 {
		return nil, fmt.Errorf("%w: %q (did you mean %s?)", ErrMaterialNotFound, key, strings.Join(s, ", "))
	}
	return nil, fmt.Errorf("%w: %q", ErrMaterialNotFound, key)
}

// Suggest returns up to n material names within a small edit distance of
// name, closest first.
func (c *Catalog) Suggest(name string, n int) []string {
	q := foldKey(name)
	if q == "" || n <= 0 {
		return nil
	}
	cacheKey := strconv.Itoa(n) + "|" + q
	if s, ok := c.suggestions.Get(cacheKey); ok {
		return s
	}

	type cand struct {
		name string
		dist int
	}
	var cands []cand
	for key, m := range c.byName {
		d := levenshtein.ComputeDistance(q, key)
		if d > suggestLimit(len(key)) {
			continue
		}
		cands = append(cands, cand{name: m.Name, dist: d})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		return cands[i].name < cands[j].name
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	out := make([]string, len(cands))
	for i, cd := range cands {
		out[i] = cd.name
	}
	c.suggestions.Add(cacheKey, out)
	return out
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// Families returns the family names in sorted order.
func (c *Catalog) Families() []string {
	out := make([]string, 0, len(c.families))
	for fam := range c.families {
		out = append(out, fam)
	}
	sort.Strings(out)
	return out
}

// List returns the materials of one family, or every material when family is empty.
func (c *Catalog) List(family string) []*Material {
	if family == "" {
		return c.ordered
	}
	return c.families[family]
}
