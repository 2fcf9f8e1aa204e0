package entity

import (
	"context"
	"fmt"
	"time"
)

// Rider is a registered passenger. All field access goes through the
// record's guard; callers only ever see copies.
type Rider struct {
	guard    guard
	name     string
	gender   string
	age      int
	location Coord
}

type RiderView struct {
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Age      int    `json:"age"`
	Location Coord  `json:"location"`
}

func NewRider(name, gender string, age int) (*Rider, error) {
	if name == "" {
		return nil, fmt.Errorf("rider name is required: %w", ErrInvalidArgument)
	}
	return &Rider{
		guard:  newGuard(),
		name:   name,
		gender: gender,
		age:    age,
	}, nil
}

func (r *Rider) Name() string { return r.name }

func (r *Rider) Location(ctx context.Context, timeout time.Duration) (Coord, error) {
	if err := r.guard.acquire(ctx, timeout); err != nil {
		return Coord{}, err
	}
	defer r.guard.release()
	return r.location, nil
}

func (r *Rider) SetLocation(ctx context.Context, loc Coord, timeout time.Duration) error {
	if err := r.guard.acquire(ctx, timeout); err != nil {
		return err
	}
	defer r.guard.release()
	r.location = loc
	return nil
}

func (r *Rider) View(ctx context.Context, timeout time.Duration) (RiderView, error) {
	if err := r.guard.acquire(ctx, timeout); err != nil {
		return RiderView{}, err
	}
	defer r.guard.release()
	return RiderView{
		Name:     r.name,
		Gender:   r.gender,
		Age:      r.age,
		Location: r.location,
	}, nil
}
