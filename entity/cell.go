package entity

// Cell holds the entities occupying a single map point (spec §3.2:
// "A cell holds at most one terrain, at most one unit, zero or more
// tokens").
type Cell struct {
	Terrain *Terrain
	Unit    *Unit
	Tokens  TokenStack
}

// Occupied reports whether a unit currently sits on this cell.
func (c *Cell) Occupied() bool {
	return c.Unit != nil
}
