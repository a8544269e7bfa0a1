package craft

import (
	"fmt"
	"math"

	"github.com/kasuganosora/rpgcraft/resource"
)

// ArmorRequest describes a three-layer armor piece.
type ArmorRequest struct {
	// Materials are the outer, inner and binding layers, in that order.
	Materials  []*resource.Material
	Class      ArmorClass
	Slot       string
	SlotFactor int
	Name       string
}

// CraftArmor builds an armor piece for the requested slot.
func (e *Engine) CraftArmor(req ArmorRequest) (*Armor, error) {
	if len(req.Materials) < len(armorLayers) {
		return nil, fmt.Errorf("%w: armor needs %d materials, got %d", ErrInsufficientMaterials, len(armorLayers), len(req.Materials))
	}
	for i, l := range armorLayers {
		if req.Materials[i] == nil {
			return nil, fmt.Errorf("%w: no %s material", ErrInsufficientMaterials, l.component)
		}
	}
	if req.SlotFactor <= 0 {
		return nil, fmt.Errorf("%w: slot factor %d", ErrInvalidParameter, req.SlotFactor)
	}
	class := req.Class
	if class == "" {
		class = ClassNone
	}
	mult, ok := classMultiplier[class]
	if !ok {
		return nil, fmt.Errorf("%w: armor class %q", ErrInvalidParameter, req.Class)
	}

	parts := make([]part, len(armorLayers))
	for i, l := range armorLayers {
		v, err := e.volumes.VolumeOf(resource.FamilyArmor, req.Slot, l.component)
		if err != nil {
			return nil, err
		}
		parts[i] = part{component: l.component, material: req.Materials[i], volume: v}
	}
	slot, err := e.volumes.CanonicalArchetype(resource.FamilyArmor, req.Slot)
	if err != nil {
		return nil, err
	}

	fallback := slot
	if class != ClassNone {
		fallback = string(class) + " " + slot
	}
	name, err := e.itemName(req.Name, fallback)
	if err != nil {
		return nil, err
	}

	return &Armor{
		ItemBase:   e.newBase(name, slot, parts),
		Slot:       slot,
		SlotFactor: req.SlotFactor,
		Class:      class,
		Defense:    armorDefense(req.Materials[:len(armorLayers)], mult),
	}, nil
}

// armorDefense blends each layer's offense×defense product by layer weight.
func armorDefense(layers []*resource.Material, mult float64) Defense {
	var d Defense
	for i, l := range armorLayers {
		m := layers[i]
		d.Slash += l.weight * m.OffenseSlash * m.DefenseSlash
		d.Pierce += l.weight * m.OffensePierce * m.DefensePierce
		d.Blunt += l.weight * m.OffenseBlunt * m.DefenseBlunt
		d.Magic += l.weight * m.ElementalMean()
	}
	return Defense{
		Slash:  capDefense(mult * d.Slash),
		Pierce: capDefense(mult * d.Pierce),
		Blunt:  capDefense(mult * d.Blunt),
		Magic:  capDefense(mult * d.Magic),
	}
}

func capDefense(v float64) float64 {
	return math.Min(defenseCap, v)
}
