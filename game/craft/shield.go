package craft

import (
	"fmt"

	"github.com/kasuganosora/rpgcraft/resource"
)

// ShieldRequest describes a shield built from per-component materials.
type ShieldRequest struct {
	Type       string
	Components []ComponentMaterial
	Name       string
}

// CraftShield builds a Buckler, Round, Kite or Tower shield.
func (e *Engine) CraftShield(req ShieldRequest) (*Shield, error) {
	if len(req.Components) == 0 {
		return nil, fmt.Errorf("%w: no components", ErrInsufficientMaterials)
	}
	typ, parts, err := e.assemble(resource.FamilyShield, req.Type, req.Components, 0)
	if err != nil {
		return nil, err
	}
	name, err := e.itemName(req.Name, typ)
	if err != nil {
		return nil, err
	}
	return &Shield{
		ItemBase: e.newBase(name, typ, parts),
		Type:     typ,
		Defense:  shieldDefense(parts),
	}, nil
}

// shieldDefense is the volume-weighted mean of the parts' defense values.
func shieldDefense(parts []part) Defense {
	var d Defense
	var volume float64
	for _, p := range parts {
		m := p.material
		d.Slash += p.volume * m.DefenseSlash
		d.Pierce += p.volume * m.DefensePierce
		d.Blunt += p.volume * m.DefenseBlunt
		d.Magic += p.volume * m.ElementalMean()
		volume += p.volume
	}
	if volume == 0 {
		return Defense{}
	}
	return Defense{
		Slash:  capDefense(d.Slash / volume),
		Pierce: capDefense(d.Pierce / volume),
		Blunt:  capDefense(d.Blunt / volume),
		Magic:  capDefense(d.Magic / volume),
	}
}

// SiegeRequest describes a siege engine built from per-component materials.
type SiegeRequest struct {
	Type       string
	Components []ComponentMaterial
	Name       string
}

// CraftSiegeWeapon builds a Catapult, BatteringRam, Trebuchet or Ballista.
func (e *Engine) CraftSiegeWeapon(req SiegeRequest) (*SiegeWeapon, error) {
	if len(req.Components) == 0 {
		return nil, fmt.Errorf("%w: no components", ErrInsufficientMaterials)
	}
	typ, parts, err := e.assemble(resource.FamilySiege, req.Type, req.Components, 0)
	if err != nil {
		return nil, err
	}
	name, err := e.itemName(req.Name, typ)
	if err != nil {
		return nil, err
	}
	return &SiegeWeapon{
		ItemBase: e.newBase(name, typ, parts),
		Type:     typ,
	}, nil
}
