package craft

import (
	"fmt"
	"math"

	"github.com/kasuganosora/rpgcraft/resource"
)

// MaxJewelryTier keeps the amulet roll range (10 x tier) within int.
const MaxJewelryTier = math.MaxInt / 10

// JewelryRequest describes a single-metal ring, earring or amulet.
type JewelryRequest struct {
	Kind  JewelryKind
	Metal *resource.Material
	Tier  int
	Name  string
}

// CraftJewelry builds a jewelry piece and rolls its bonus.
func (e *Engine) CraftJewelry(req JewelryRequest) (*Jewelry, error) {
	if req.Metal == nil {
		return nil, fmt.Errorf("%w: jewelry needs a metal", ErrInsufficientMaterials)
	}
	if req.Tier < 1 || req.Tier > MaxJewelryTier {
		return nil, fmt.Errorf("%w: tier %d outside 1..%d", ErrInvalidParameter, req.Tier, MaxJewelryTier)
	}
	kind, err := ParseJewelryKind(string(req.Kind))
	if err != nil {
		return nil, err
	}
	name, err := e.itemName(req.Name, req.Metal.Name+" "+string(kind))
	if err != nil {
		return nil, err
	}

	dur := req.Metal.Toughness * 10 * float64(req.Tier)
	j := &Jewelry{
		ItemBase: ItemBase{
			ID:            e.newID(),
			Name:          name,
			Archetype:     string(kind),
			Durability:    dur,
			MaxDurability: dur,
			CraftedAt:     e.now().UTC(),
		},
		JewelryKind: kind,
		MaterialID:  req.Metal.ID,
		Tier:        req.Tier,
	}
	switch kind {
	case Ring:
		j.Attribute = e.pick(ringAttributes)
		j.Bonus = e.roll(req.Tier)
	case Earring:
		j.Attribute = e.pick(earringAttributes)
		j.Bonus = e.roll(req.Tier)
	case Amulet:
		j.Skill = e.pick(Skills)
		j.Bonus = e.roll(10 * req.Tier)
	}
	return j, nil
}
