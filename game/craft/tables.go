package craft

import (
	"fmt"
	"strings"
)

// ArmorClass scales how much of the layered material defense an armor piece keeps.
type ArmorClass string

const (
	ClassNone   ArmorClass = "None"
	ClassLight  ArmorClass = "Light"
	ClassMedium ArmorClass = "Medium"
	ClassHeavy  ArmorClass = "Heavy"
)

var classMultiplier = map[ArmorClass]float64{
	ClassNone:   0,
	ClassLight:  0.45,
	ClassMedium: 0.65,
	ClassHeavy:  0.85,
}

// ParseArmorClass accepts any casing of a class name.
func ParseArmorClass(s string) (ArmorClass, error) {
	for c := range classMultiplier {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: armor class %q", ErrInvalidParameter, s)
}

// armor layer components and their weight in the defense blend
const (
	layerOuter   = "Outer"
	layerInner   = "Inner"
	layerBinding = "Binding"
)

var armorLayers = []struct {
	component string
	weight    float64
}{
	{layerOuter, 0.80},
	{layerInner, 0.15},
	{layerBinding, 0.05},
}

const defenseCap = 0.95

// JewelryKind selects which jewelry resolver branch runs.
type JewelryKind string

const (
	Ring    JewelryKind = "Ring"
	Earring JewelryKind = "Earring"
	Amulet  JewelryKind = "Amulet"
)

// ParseJewelryKind accepts any casing of a jewelry kind.
func ParseJewelryKind(s string) (JewelryKind, error) {
	for _, k := range []JewelryKind{Ring, Earring, Amulet} {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: jewelry kind %q", ErrUnknownArchetype, s)
}

var (
	ringAttributes    = []string{"Intelligence", "Strength"}
	earringAttributes = []string{"Dexterity", "Psyche"}
)

// Skills is the roster an amulet may boost.
var Skills = []string{
	"ArmorTraining", "BlockingAndShields",
	"Sword", "Axe", "Dagger", "Hammer", "Polesword", "Poleaxe", "Spear",
	"MountedCombat", "MountedArchery", "MountedMagery",
	"Anatomy", "BeastControl", "Taming",
	"Fire", "Water", "Earth", "Wind", "Radiance", "Void",
	"Stealth", "MeleeAmbush", "RangedAmbush", "ElementalAmbush",
}

// hollowEligible components lose volume to the hollow factor.
var hollowEligible = map[string]bool{
	"handle": true,
	"shaft":  true,
	"stave":  true,
}

// headComponents are checked in order to find the part that sets the damage modifier.
var headComponents = []string{"Head", "Blade", "Pouch", "Stave"}

// rangedTypes are the only archetypes CraftBow accepts.
var rangedTypes = map[string]bool{
	"bow":      true,
	"crossbow": true,
	"sling":    true,
}

// weaponProfiles holds each weapon type's base head damage.
var weaponProfiles = map[string]DamageProfile{
	"sword":     {Slash: 0.35, Pierce: 0.20, Blunt: 0.10},
	"axe":       {Slash: 0.45, Pierce: 0.10, Blunt: 0.20},
	"hammer":    {Slash: 0.10, Pierce: 0.10, Blunt: 0.60},
	"spear":     {Slash: 0.15, Pierce: 0.45, Blunt: 0.10},
	"dagger":    {Slash: 0.20, Pierce: 0.30, Blunt: 0.05},
	"bow":       {Pierce: 0.40},
	"crossbow":  {Pierce: 0.30},
	"sling":     {Blunt: 0.20},
	"lance":     {Pierce: 0.50, Blunt: 0.20},
	"polesword": {Slash: 0.35, Pierce: 0.25, Blunt: 0.10},
	"poleaxe":   {Slash: 0.30, Pierce: 0.15, Blunt: 0.25},
}

// slotFactors is the body coverage multiplier used when a request leaves it unset.
var slotFactors = map[string]int{
	"helmet":     1,
	"gauntlets":  1,
	"boots":      2,
	"chestplate": 3,
	"greaves":    3,
}

// DefaultSlotFactor returns the coverage multiplier for a slot, or 1 for slots
// without one.
func DefaultSlotFactor(slot string) int {
	if f, ok := slotFactors[strings.ToLower(strings.TrimSpace(slot))]; ok {
		return f
	}
	return 1
}
