package world

// Axis names the coordinate a portal threshold checks.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Comparison names the direction of a portal threshold check.
type Comparison int

const (
	GreaterThan Comparison = iota
	LessThan
)

// Portal links two zones: when an active player's position satisfies
// Axis/Comparison/Threshold while inside FromZone, they are moved to
// ToZone and teleported to (IncomingX, IncomingY, IncomingZ).
//
// Promoted from the teacher's hardcoded x=95/x=-145 checks into a
// table since the teacher already treats every other piece of spatial
// content (maps, spawn points) as loaded data rather than constants.
type Portal struct {
	FromZone  string
	ToZone    string
	Axis      Axis
	Comp      Comparison
	Threshold float64

	IncomingX, IncomingY, IncomingZ float64
}

func axisValue(axis Axis, x, y, z float64) float64 {
	switch axis {
	case AxisX:
		return x
	case AxisY:
		return y
	case AxisZ:
		return z
	default:
		return x
	}
}

// Triggered reports whether a position at (x,y,z) crosses this
// portal's threshold.
func (p Portal) Triggered(x, y, z float64) bool {
	v := axisValue(p.Axis, x, y, z)
	if p.Comp == GreaterThan {
		return v > p.Threshold
	}
	return v < p.Threshold
}

// DefaultPortals is the two-zone starter demo link, symmetric in both
// directions, matching the source's x=95 → x=-145 behavior.
func DefaultPortals() []Portal {
	return []Portal{
		{
			FromZone: "zone-1", ToZone: "zone-2",
			Axis: AxisX, Comp: GreaterThan, Threshold: 95,
			IncomingX: -95,
		},
		{
			FromZone: "zone-2", ToZone: "zone-1",
			Axis: AxisX, Comp: LessThan, Threshold: -145,
			IncomingX: 95,
		},
	}
}
