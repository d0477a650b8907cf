package barline

import (
	"math"
	"strconv"
)

// DefaultUnitsPerBar is the reference grid resolution: 32 units per whole
// note, i.e. one unit per thirty-second note in 4/4.
const DefaultUnitsPerBar = 32

// Duration is a named duration token ("quarter", "dotted_eighth", ...) or
// a raw integer unit count on the reference grid ("12"). Tokens decouple
// the musical vocabulary from the grid resolution: the same token set works
// for finer or coarser grids via Units.
type Duration string

// base unit counts on the 32-units-per-whole reference grid; dotted
// variants are 1.5x base, triplets 2/3x base, rounded
var baseUnits = map[Duration]int{
	"whole":             32,
	"half":              16,
	"quarter":           8,
	"eighth":            4,
	"sixteenth":         2,
	"thirty_second":     1,
	"dotted_half":       24,
	"dotted_quarter":    12,
	"dotted_eighth":     6,
	"triplet_quarter":   5,
	"triplet_eighth":    3,
	"triplet_sixteenth": 1,
}

// Units resolves the token against a bar's unit resolution, scaling the
// reference grid linearly and never rounding below one unit.
func (d Duration) Units(unitsPerBar int) (int, error) {
	base, ok := baseUnits[d]
	if !ok {
		n, err := strconv.Atoi(string(d))
		if err != nil || n < 0 {
			return 0, &UnknownDurationError{Token: string(d)}
		}
		base = n
	}
	scale := float64(unitsPerBar) / DefaultUnitsPerBar
	units := int(math.Round(float64(base) * scale))
	if units < 1 {
		units = 1
	}
	return units, nil
}
