package craft

import (
	"fmt"
	"math"
	"strings"

	"github.com/kasuganosora/rpgcraft/resource"
)

// WeaponRequest describes a weapon built from per-component materials.
type WeaponRequest struct {
	Type       string
	Components []ComponentMaterial
	// HollowFactor in [0,1) removes that share of Handle/Shaft/Stave volume.
	HollowFactor float64
	Name         string
}

// CraftWeapon builds any weapon in the weapon volume table.
func (e *Engine) CraftWeapon(req WeaponRequest) (*Weapon, error) {
	h := req.HollowFactor
	if math.IsNaN(h) || h < 0 || h >= 1 {
		return nil, fmt.Errorf("%w: hollow factor %v outside [0,1)", ErrInvalidParameter, h)
	}
	if len(req.Components) == 0 {
		return nil, fmt.Errorf("%w: no components", ErrInsufficientMaterials)
	}
	typ, parts, err := e.assemble(resource.FamilyWeapon, req.Type, req.Components, h)
	if err != nil {
		return nil, err
	}
	name, err := e.itemName(req.Name, typ)
	if err != nil {
		return nil, err
	}

	base := e.newBase(name, typ, parts)
	if h > 0 {
		base.MaxDurability *= 1 - 0.5*h
		base.Durability = base.MaxDurability
	}

	mod, err := e.damageModifier(headPart(parts))
	if err != nil {
		return nil, err
	}
	return &Weapon{
		ItemBase:       base,
		Type:           typ,
		HollowFactor:   h,
		Offense:        weaponProfiles[strings.ToLower(typ)],
		DamageModifier: mod,
	}, nil
}

// CraftBow is CraftWeapon restricted to Bow, Crossbow and Sling.
func (e *Engine) CraftBow(req WeaponRequest) (*Weapon, error) {
	if !rangedTypes[strings.ToLower(strings.TrimSpace(req.Type))] {
		return nil, fmt.Errorf("%w: %q is not a bow, crossbow or sling", ErrInvalidArchetypeForOperation, req.Type)
	}
	return e.CraftWeapon(req)
}

func headPart(parts []part) *resource.Material {
	for _, name := range headComponents {
		for _, p := range parts {
			if strings.EqualFold(p.component, name) {
				return p.material
			}
		}
	}
	return nil
}

func (e *Engine) damageModifier(head *resource.Material) (float64, error) {
	if head == nil {
		return 0, nil
	}
	if e.formula == nil {
		return (head.OffenseSlash + head.OffensePierce) / 4, nil
	}
	v, err := e.formula.DamageModifier(head)
	if err != nil {
		return 0, fmt.Errorf("%w: damage formula: %w", ErrMalformedData, err)
	}
	return v, nil
}
