package entity

import (
	"context"
	"fmt"
	"time"
)

// Driver is a registered driver record. The guard covers location,
// availability and earnings; the invariant is that availability and
// earnings are never observed out of step with each other.
type Driver struct {
	guard     guard
	name      string
	gender    string
	age       int
	vehicle   string
	plate     string
	location  Coord
	available bool
	earnings  int64
}

type DriverView struct {
	Name      string `json:"name"`
	Gender    string `json:"gender"`
	Age       int    `json:"age"`
	Vehicle   string `json:"vehicle"`
	Plate     string `json:"plate"`
	Location  Coord  `json:"location"`
	Available bool   `json:"available"`
	Earnings  int64  `json:"earnings"`
}

func NewDriver(name, gender string, age int, vehicle, plate string, loc Coord) (*Driver, error) {
	if name == "" {
		return nil, fmt.Errorf("driver name is required: %w", ErrInvalidArgument)
	}
	return &Driver{
		guard:     newGuard(),
		name:      name,
		gender:    gender,
		age:       age,
		vehicle:   vehicle,
		plate:     plate,
		location:  loc,
		available: true,
	}, nil
}

func (d *Driver) Name() string { return d.name }

func (d *Driver) SetLocation(ctx context.Context, loc Coord, timeout time.Duration) error {
	if err := d.guard.acquire(ctx, timeout); err != nil {
		return err
	}
	defer d.guard.release()
	d.location = loc
	return nil
}

func (d *Driver) SetAvailable(ctx context.Context, available bool, timeout time.Duration) error {
	if err := d.guard.acquire(ctx, timeout); err != nil {
		return err
	}
	defer d.guard.release()
	d.available = available
	return nil
}

func (d *Driver) AddEarning(ctx context.Context, amount int64, timeout time.Duration) error {
	if amount < 0 {
		return fmt.Errorf("earning amount %d is negative: %w", amount, ErrInvalidArgument)
	}
	if err := d.guard.acquire(ctx, timeout); err != nil {
		return err
	}
	defer d.guard.release()
	d.earnings += amount
	return nil
}

// ResetEarnings zeroes the accumulated earnings. Not part of the ride flow;
// reserved for explicit settlement-period rollover by an operator.
func (d *Driver) ResetEarnings(ctx context.Context, timeout time.Duration) error {
	if err := d.guard.acquire(ctx, timeout); err != nil {
		return err
	}
	defer d.guard.release()
	d.earnings = 0
	return nil
}

// Settle applies the end-of-ride transaction in one guard hold: it
// re-validates availability, accrues the fare, moves the driver to the
// destination and marks them unavailable. Returns false without mutating
// anything when the driver is no longer available.
func (d *Driver) Settle(ctx context.Context, fare int64, dest Coord, timeout time.Duration) (bool, error) {
	if fare < 0 {
		return false, fmt.Errorf("fare %d is negative: %w", fare, ErrInvalidArgument)
	}
	if err := d.guard.acquire(ctx, timeout); err != nil {
		return false, err
	}
	defer d.guard.release()

	if !d.available {
		return false, nil
	}
	d.earnings += fare
	d.location = dest
	d.available = false
	return true, nil
}

func (d *Driver) View(ctx context.Context, timeout time.Duration) (DriverView, error) {
	if err := d.guard.acquire(ctx, timeout); err != nil {
		return DriverView{}, err
	}
	defer d.guard.release()
	return DriverView{
		Name:      d.name,
		Gender:    d.gender,
		Age:       d.age,
		Vehicle:   d.vehicle,
		Plate:     d.plate,
		Location:  d.location,
		Available: d.available,
		Earnings:  d.earnings,
	}, nil
}
