package craft

import (
	"context"

	"github.com/kasuganosora/rpgcraft/game/script"
	"github.com/kasuganosora/rpgcraft/resource"
)

// ScriptFormula evaluates an operator-supplied JS expression with the head
// material bound as `head`.
type ScriptFormula struct {
	sandbox *script.Sandbox
	src     string
}

// NewScriptFormula wraps src for use with WithDamageFormula.
func NewScriptFormula(sb *script.Sandbox, src string) *ScriptFormula {
	return &ScriptFormula{sandbox: sb, src: src}
}

func (f *ScriptFormula) DamageModifier(head *resource.Material) (float64, error) {
	return f.sandbox.EvalFloat(context.Background(), f.src, script.Bindings{
		"head": map[string]interface{}{
			"id":        head.ID,
			"name":      head.Name,
			"tier":      head.Tier,
			"slash":     head.OffenseSlash,
			"pierce":    head.OffensePierce,
			"blunt":     head.OffenseBlunt,
			"density":   head.Density,
			"toughness": head.Toughness,
		},
	})
}
