package entity

// Coord is a position on the integer grid the city is modeled as.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DistanceTo returns the Manhattan distance between two coordinates.
// Matching and billing share this metric.
func (c Coord) DistanceTo(o Coord) int {
	return abs(c.X-o.X) + abs(c.Y-o.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
