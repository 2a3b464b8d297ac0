package mutation

import "github.com/metta-ai/mettagrid/grid"
import "github.com/metta-ai/mettagrid/handler"

// Attack resolves hit chance and damage from weapon/armor/health resources
// with a damage multiplier, consumes the weapon, depletes armor, reduces
// health, optionally loots a subset of the target's inventory, and
// optionally freezes the target. All draws come from ctx.RNG, so two runs
// with the same seed and action stream resolve identically (spec §4.E /
// §5).
type Attack struct {
	WeaponResource      grid.ResourceID
	ArmorResource       grid.ResourceID
	HealthResource      grid.ResourceID
	WeaponCost          int // consumed from the actor per attempt
	DamageMultiplierPct int
	HitChancePct        int // 0-100
	LootResources       []grid.ResourceID
	FreezeDuration      int
	FreezeOnHit         bool
}

// Resolved reports how an Attack.Apply call played out, for callers (the
// attack action handler) that need to record stats/success.
type Resolved struct {
	Attempted bool
	Hit       bool
	Damage    int
}

func (m *Attack) Apply(ctx *handler.Context) {
	m.apply(ctx)
}

// ApplyResolved is equivalent to Apply but returns the outcome, used by
// the attack action handler to set success[i] and increment stats.
func (m *Attack) ApplyResolved(ctx *handler.Context) Resolved {
	return m.apply(ctx)
}

func (m *Attack) apply(ctx *handler.Context) Resolved {
	if ctx.Actor == nil || ctx.Target == nil {
		return Resolved{}
	}
	weaponCost := m.WeaponCost
	if weaponCost <= 0 {
		weaponCost = 1
	}
	if ctx.Actor.ResourceAmount(m.WeaponResource) < weaponCost {
		return Resolved{}
	}
	ctx.Actor.AddResource(m.WeaponResource, -weaponCost)

	hitChance := float64(m.HitChancePct) / 100.0
	roll := 1.0
	if ctx.RNG != nil {
		roll = ctx.RNG.Float64()
	}
	hit := roll < hitChance
	result := Resolved{Attempted: true, Hit: hit}
	if !hit {
		return result
	}

	damage := weaponCost * m.DamageMultiplierPct / 100
	if armor := ctx.Target.ResourceAmount(m.ArmorResource); armor > 0 {
		absorbed := armor
		if absorbed > damage {
			absorbed = damage
		}
		ctx.Target.AddResource(m.ArmorResource, -absorbed)
		damage -= absorbed
	}
	if damage > 0 {
		ctx.Target.AddResource(m.HealthResource, -damage)
	}
	result.Damage = damage

	for _, res := range m.LootResources {
		amount := ctx.Target.ResourceAmount(res)
		if amount <= 0 {
			continue
		}
		taken := -ctx.Target.AddResource(res, -amount)
		ctx.Actor.AddResource(res, taken)
	}

	if m.FreezeOnHit && m.FreezeDuration > 0 && ctx.Grid != nil {
		if agent := ctx.Grid.AgentByID(ctx.Target.ID); agent != nil {
			agent.FrozenUntilStep = ctx.CurrentStep + m.FreezeDuration
		}
	}
	return result
}
