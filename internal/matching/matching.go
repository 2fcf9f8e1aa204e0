// Package matching filters a driver snapshot against a rider's position.
// Pure functions only; all shared-state discipline lives in the registry.
package matching

import "github.com/khanhle/gocab/internal/domain/entity"

// FindAvailable returns the drivers that are available and within
// maxDistance (Manhattan) of riderPos, in snapshot order. First-fit
// selection means the caller takes the head of the result; no
// distance-based ranking is applied. An empty result is a legitimate
// outcome, not an error.
func FindAvailable(riderPos entity.Coord, snapshot []entity.DriverView, maxDistance int) []entity.DriverView {
	var candidates []entity.DriverView
	for _, d := range snapshot {
		if d.Available && d.Location.DistanceTo(riderPos) <= maxDistance {
			candidates = append(candidates, d)
		}
	}
	return candidates
}
