package pathfind

import (
	"container/heap"

	"github.com/nicoberrocal/gridwar/event"
	"github.com/nicoberrocal/gridwar/maps"
	"github.com/nicoberrocal/gridwar/rational"
	"github.com/nicoberrocal/gridwar/rulebook"
)

// StepGenerator enumerates the candidate steps available from a node —
// normally every Dir/Jump/Diagonal/Knight combination the unit's
// movement pattern allows, but kept pluggable so a caller can restrict
// the vocabulary (e.g. Point-only for fog-bridged replay, per spec
// §4.4).
type StepGenerator func(m maps.WrappingMap, at Point) []Step

// StandardSteps yields one Dir and one Jump step per direction plus
// the two Diagonal/Knight variants, the full vocabulary named in spec
// §4.4.
func StandardSteps(m maps.WrappingMap, at Point) []Step {
	n := m.ShapeKind.DirectionCount()
	steps := make([]Step, 0, n*4)
	for d := 0; d < n; d++ {
		dir := maps.Direction(d)
		steps = append(steps,
			Step{Kind: StepDir, Direction: dir},
			Step{Kind: StepJump, Direction: dir},
			Step{Kind: StepDiagonal, Direction: dir},
			Step{Kind: StepKnight, Direction: dir, TurnLeft: true},
			Step{Kind: StepKnight, Direction: dir, TurnLeft: false},
		)
	}
	return steps
}

// PathNode is one step of a resolved movement path, carrying the
// accumulated cost at that point and the step taken to reach it.
type PathNode struct {
	At   Point
	Step Step
	Cost rational.Rat
}

// Result is the outcome of a budgeted path search from one origin: the
// cheapest known path to every reached cell, keyed by point (ignoring
// the accumulated distortion/direction, since only the cheapest matters
// for reachability).
type Result struct {
	Paths map[maps.Point][]PathNode
}

// legalityFunc decides whether a step onto dest is legal and what it
// costs; Search and SearchIgnoringUnits differ only in which one they
// plug into the shared Dijkstra loop.
type legalityFunc func(g *event.Game, rb *rulebook.Rulebook, mover MoverState, moverTeam int, dest maps.Point) (Cost, bool)

// Search runs a rational-cost Dijkstra from origin out to budget
// movement points (spec §4.4), consulting StepLegal for terrain/unit
// blocking and applying ballast rules after every accepted step so a
// unit's movement type can change mid-path.
func Search(g *event.Game, rb *rulebook.Rulebook, origin maps.Point, mover MoverState, moverTeam int, budget rational.Rat, gen StepGenerator, rules BallastRules) Result {
	return search(g, rb, origin, mover, moverTeam, budget, gen, rules, StepLegal)
}

// SearchIgnoringUnits runs the same Dijkstra as Search but treats every
// cell as unoccupied, consulting only terrain movement cost — the
// IgnoreUnits wrapper original_source's units/unit.rs::get_vision
// applies before probing a VisionMode.Movement unit's reachable path
// graph, so that units standing in the way don't shrink its vision.
func SearchIgnoringUnits(g *event.Game, rb *rulebook.Rulebook, origin maps.Point, mover MoverState, budget rational.Rat, gen StepGenerator, rules BallastRules) Result {
	return search(g, rb, origin, mover, 0, budget, gen, rules, func(g *event.Game, rb *rulebook.Rulebook, mover MoverState, _ int, dest maps.Point) (Cost, bool) {
		return terrainCost(rb, g.Cell(dest).Terrain, mover.MovementType)
	})
}

func search(g *event.Game, rb *rulebook.Rulebook, origin maps.Point, mover MoverState, moverTeam int, budget rational.Rat, gen StepGenerator, rules BallastRules, legal legalityFunc) Result {
	if gen == nil {
		gen = StandardSteps
	}
	best := make(map[maps.Point]rational.Rat)
	paths := make(map[maps.Point][]PathNode)

	start := Point{Point: origin}
	best[origin] = rational.Zero

	pq := &openSet{}
	heap.Push(pq, &openItem{at: start, mover: mover, cost: rational.Zero, path: nil})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*openItem)
		if known, ok := best[item.at.Point]; ok && rational.Less(known, item.cost) {
			continue
		}
		for _, step := range gen(g.Map, item.at) {
			dest, ok := step.Dest(g.Map, item.at)
			if !ok {
				continue
			}
			stepCost, legalStep := legal(g, rb, item.mover, moverTeam, dest.Point)
			if !legalStep {
				continue
			}
			total := rational.Add(item.cost, stepCost)
			if rational.Cmp(total, budget) > 0 {
				continue
			}
			if prev, seen := best[dest.Point]; seen && !rational.Less(total, prev) {
				continue
			}
			nextMover := rules.Apply(g, rb, item.mover, dest.Point)
			node := PathNode{At: dest, Step: step, Cost: total}
			newPath := append(append([]PathNode{}, item.path...), node)

			best[dest.Point] = total
			paths[dest.Point] = newPath
			heap.Push(pq, &openItem{at: dest, mover: nextMover, cost: total, path: newPath})
		}
	}

	return Result{Paths: paths}
}

type openItem struct {
	at    Point
	mover MoverState
	cost  rational.Rat
	path  []PathNode
}

// openSet is a min-heap over accumulated rational cost, the Dijkstra
// open set — the same container/heap shape combat/queue.go's Queue
// uses for outer attack priorities, here ordering by ascending cost
// instead of descending priority.
type openSet []*openItem

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	return rational.Less(s[i].cost, s[j].cost)
}
func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s *openSet) Push(x any)   { *s = append(*s, x.(*openItem)) }
func (s *openSet) Pop() any {
	old := *s
	n := len(old)
	v := old[n-1]
	*s = old[:n-1]
	return v
}
