package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhle/gocab/internal/domain/entity"
)

func testSnapshot() []entity.DriverView {
	return []entity.DriverView{
		{Name: "driver-1", Location: entity.Coord{X: 10, Y: 1}, Available: true},
		{Name: "driver-2", Location: entity.Coord{X: 11, Y: 10}, Available: true},
		{Name: "driver-3", Location: entity.Coord{X: 5, Y: 3}, Available: true},
	}
}

func TestFindAvailable_NoneInRange(t *testing.T) {
	// Distances from (0,0): 11, 21, 8 — all beyond 5.
	got := FindAvailable(entity.Coord{X: 0, Y: 0}, testSnapshot(), 5)

	assert.Empty(t, got)
}

func TestFindAvailable_FirstFitOrder(t *testing.T) {
	// Distances from (10,0): driver-1 is 1, driver-2 is 11, driver-3 is 8.
	got := FindAvailable(entity.Coord{X: 10, Y: 0}, testSnapshot(), 5)

	require.Len(t, got, 1)
	assert.Equal(t, "driver-1", got[0].Name)
}

func TestFindAvailable_SkipsUnavailableDrivers(t *testing.T) {
	snapshot := testSnapshot()
	snapshot[0].Available = false

	got := FindAvailable(entity.Coord{X: 10, Y: 0}, snapshot, 5)

	assert.Empty(t, got)
}

func TestFindAvailable_KeepsSnapshotOrder(t *testing.T) {
	snapshot := []entity.DriverView{
		{Name: "far", Location: entity.Coord{X: 4, Y: 0}, Available: true},
		{Name: "near", Location: entity.Coord{X: 1, Y: 0}, Available: true},
	}

	// No distance ranking: "far" stays first because it was first in the
	// snapshot, even though "near" is closer.
	got := FindAvailable(entity.Coord{X: 0, Y: 0}, snapshot, 5)

	require.Len(t, got, 2)
	assert.Equal(t, "far", got[0].Name)
	assert.Equal(t, "near", got[1].Name)
}

func TestFindAvailable_BoundaryDistanceIncluded(t *testing.T) {
	snapshot := []entity.DriverView{
		{Name: "edge", Location: entity.Coord{X: 3, Y: 2}, Available: true},
	}

	got := FindAvailable(entity.Coord{X: 0, Y: 0}, snapshot, 5)

	require.Len(t, got, 1)
	assert.Equal(t, "edge", got[0].Name)
}
