package craft

import "time"

// Kind tags the concrete item type behind an Item.
type Kind string

const (
	KindArmor       Kind = "armor"
	KindWeapon      Kind = "weapon"
	KindShield      Kind = "shield"
	KindSiegeWeapon Kind = "siege"
	KindRing        Kind = "ring"
	KindEarring     Kind = "earring"
	KindAmulet      Kind = "amulet"
)

// Item is implemented by every crafted item type.
type Item interface {
	Kind() Kind
	Base() *ItemBase
}

// BillLine is one component's share of the raw materials.
type BillLine struct {
	Component    string  `json:"component"`
	MaterialID   string  `json:"material_id"`
	MaterialName string  `json:"material_name"`
	VolumeCm3    float64 `json:"volume_cm3"`
	MassG        float64 `json:"mass_g"`
	Units        float64 `json:"units"`
}

// ItemBase holds the fields common to all crafted items.
type ItemBase struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Archetype     string     `json:"archetype"`
	MassKg        float64    `json:"mass_kg"`
	VolumeCm3     float64    `json:"volume_cm3"`
	Durability    float64    `json:"durability"`
	MaxDurability float64    `json:"max_durability"`
	Bill          []BillLine `json:"bill_of_materials"`
	CraftedAt     time.Time  `json:"crafted_at"`
}

// Base returns the shared fields.
func (b *ItemBase) Base() *ItemBase { return b }

// DamageProfile is a slash/pierce/blunt triple.
type DamageProfile struct {
	Slash  float64 `json:"slash"`
	Pierce float64 `json:"pierce"`
	Blunt  float64 `json:"blunt"`
}

// Defense is the damage reduction an armor piece or shield provides.
type Defense struct {
	Slash  float64 `json:"slash"`
	Pierce float64 `json:"pierce"`
	Blunt  float64 `json:"blunt"`
	Magic  float64 `json:"magic"`
}

type Armor struct {
	ItemBase
	Slot       string     `json:"slot"`
	SlotFactor int        `json:"slot_factor"`
	Class      ArmorClass `json:"class"`
	Defense    Defense    `json:"defense"`
}

func (*Armor) Kind() Kind { return KindArmor }

type Weapon struct {
	ItemBase
	Type           string        `json:"type"`
	HollowFactor   float64       `json:"hollow_factor"`
	Offense        DamageProfile `json:"offense"`
	DamageModifier float64       `json:"damage_modifier"`
}

func (*Weapon) Kind() Kind { return KindWeapon }

type Shield struct {
	ItemBase
	Type    string  `json:"type"`
	Defense Defense `json:"defense"`
}

func (*Shield) Kind() Kind { return KindShield }

type SiegeWeapon struct {
	ItemBase
	Type string `json:"type"`
}

func (*SiegeWeapon) Kind() Kind { return KindSiegeWeapon }

// Jewelry is a Ring, Earring or Amulet. Rings and earrings raise an
// attribute; amulets raise a skill.
type Jewelry struct {
	ItemBase
	JewelryKind JewelryKind `json:"jewelry_kind"`
	MaterialID  string      `json:"material_id"`
	Tier        int         `json:"tier"`
	Attribute   string      `json:"attribute,omitempty"`
	Skill       string      `json:"skill,omitempty"`
	Bonus       int         `json:"bonus"`
}

func (j *Jewelry) Kind() Kind {
	switch j.JewelryKind {
	case Earring:
		return KindEarring
	case Amulet:
		return KindAmulet
	default:
		return KindRing
	}
}

var (
	_ Item = (*Armor)(nil)
	_ Item = (*Weapon)(nil)
	_ Item = (*Shield)(nil)
	_ Item = (*SiegeWeapon)(nil)
	_ Item = (*Jewelry)(nil)
)
