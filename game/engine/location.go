package engine

import "fmt"

// Location is where a piece stands: jail, a loop cell, a cell of a
// color's home lane, or the finish.
type Location struct {
	Zone  Zone  `json:"zone"`
	Color Color `json:"color,omitempty"` // set for home lane and finished locations
	Index int   `json:"index"`           // loop or home lane index; JailIndex in jail
}

// JailLocation is the holding area for pieces not in play
func JailLocation() Location {
	return Location{Zone: Jailed, Index: JailIndex}
}

// LoopLocation is cell i of the shared loop
func LoopLocation(i int) Location {
	return Location{Zone: OnLoop, Index: i}
}

// HomeLocation is cell i of color's home lane
func HomeLocation(color Color, i int) Location {
	return Location{Zone: OnHomeLane, Color: color, Index: i}
}

// FinishedLocation is the shared center reached by color
func FinishedLocation(color Color) Location {
	return Location{Zone: Finished, Color: color, Index: HomeLaneLength - 1}
}

func (l Location) String() string {
	switch l.Zone {
	case Jailed:
		return "jail"
	case OnLoop:
		return fmt.Sprintf("loop[%d]", l.Index)
	case OnHomeLane:
		return fmt.Sprintf("home[%s][%d]", l.Color, l.Index)
	case Finished:
		return fmt.Sprintf("finished[%s]", l.Color)
	}
	return "unknown"
}
