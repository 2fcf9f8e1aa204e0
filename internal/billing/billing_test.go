package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khanhle/gocab/internal/domain/entity"
)

func TestFare(t *testing.T) {
	tests := []struct {
		name   string
		source entity.Coord
		dest   entity.Coord
		rate   int64
		want   int64
	}{
		{"manhattan times rate", entity.Coord{X: 10, Y: 0}, entity.Coord{X: 15, Y: 3}, 10, 80},
		{"zero distance is free", entity.Coord{X: 3, Y: 3}, entity.Coord{X: 3, Y: 3}, 10, 0},
		{"direction does not matter", entity.Coord{X: 15, Y: 3}, entity.Coord{X: 10, Y: 0}, 10, 80},
		{"custom rate", entity.Coord{X: 0, Y: 0}, entity.Coord{X: 2, Y: 2}, 25, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fare(tt.source, tt.dest, tt.rate))
		})
	}
}
