package combat

import (
	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
)

// DiscoverCounters enumerates the counter-attackers one resolved
// attack produces (spec §4.1 "Counter-attack discovery"): every
// non-attacker-team unit inside a counter-eligible splash ring of any
// of the attacker's configured attacks, at most once per defender cell
// across rings. Each is returned as a RealCounter AttackerInfo aimed
// back at the original attacker, carrying the original attacker's
// ballast chain forward (spec §4.1.1).
//
// Counters against a Ghost attacker (one with no map position, e.g. a
// final-blow effect against an already-removed unit) are not
// discoverable — there is nothing on the board to counter-attack —
// and are silently skipped.
func DiscoverCounters(g *event.Game, obs *ObservationTable, cfg Config, info AttackerInfo, result RetargetResult, attackerTeam int) []AttackerInfo {
	if info.Position.Kind != AttackerReal {
		return nil
	}
	attacker, ok := resolveAttacker(g, obs, info.Position)
	if !ok {
		return nil
	}

	seen := make(map[maps.Point]bool)
	var counters []AttackerInfo
	for _, instance := range info.Attack.Splash {
		if !instance.AllowsCounterAttack {
			continue
		}
		if instance.SplashDistance < 0 || instance.SplashDistance >= len(result.TargetsByDist) {
			continue
		}
		for _, dp := range result.TargetsByDist[instance.SplashDistance] {
			if seen[dp.Point] {
				continue
			}
			cell := g.Cell(dp.Point)
			if cell.Unit == nil {
				continue
			}
			defender := cell.Unit
			player := g.Player(defender.Owner())
			if player == nil || player.TeamID == attackerTeam {
				continue
			}
			seen[dp.Point] = true

			row, ok := g.Rulebook.Units.Row(defender.TypeIndex)
			if !ok || cfg.Weapons == nil {
				continue
			}
			weaponAttack, ok := cfg.Weapons.ConfiguredAttack(row.WeaponID)
			if !ok {
				continue
			}

			counterObsID := obs.Remember(dp.Point, nil)
			originalObsID := info.Position.ObservationID

			counters = append(counters, AttackerInfo{
				Position: AttackerPosition{Kind: AttackerReal, ObservationID: counterObsID},
				Attack:   weaponAttack,
				Targeting: AttackTargeting{
					DirectionHint:       g.Map.ShapeKind.Opposite(result.Direction),
					DefenderObservation: &originalObsID,
				},
				CounterState: CounterState{
					Kind:                RealCounter,
					Attacker:            attacker.Unit,
					AttackerPos:         attacker.Pos,
					Ballast:             info.TemporaryBallast,
					OriginalTransporter: info.Transporter,
				},
			})
		}
	}
	return counters
}
