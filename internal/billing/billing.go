// Package billing prices a ride. Stateless and total.
package billing

import "github.com/khanhle/gocab/internal/domain/entity"

// DefaultRatePerUnit is the fare charged per unit of Manhattan distance.
const DefaultRatePerUnit int64 = 10

// Fare computes the ride price from source to destination at the given
// rate, using the same distance metric as matching.
func Fare(source, destination entity.Coord, ratePerUnit int64) int64 {
	return int64(source.DistanceTo(destination)) * ratePerUnit
}
