// Package registry is the authoritative in-memory store of rider and
// driver records. Map membership is protected by package-level RWMutexes;
// each record's fields are protected by that record's own guard, so
// operations on unrelated drivers never contend.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/khanhle/gocab/internal/domain/entity"
	"github.com/khanhle/gocab/pkg/logger"
)

type Registry struct {
	rmu    sync.RWMutex
	riders map[string]*entity.Rider

	dmu         sync.RWMutex
	drivers     map[string]*entity.Driver
	driverOrder []string // registration order; keeps first-fit matching deterministic

	guardWait time.Duration
	log       logger.Logger
}

func New(guardWait time.Duration, log logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		riders:    make(map[string]*entity.Rider),
		drivers:   make(map[string]*entity.Driver),
		guardWait: guardWait,
		log:       log,
	}
}

func (r *Registry) AddRider(ctx context.Context, name, gender string, age int) error {
	rider, err := entity.NewRider(name, gender, age)
	if err != nil {
		return err
	}

	r.rmu.Lock()
	defer r.rmu.Unlock()
	if _, exists := r.riders[name]; exists {
		return fmt.Errorf("rider %q: %w", name, entity.ErrDuplicateIdentity)
	}
	r.riders[name] = rider
	r.log.Info(ctx, "rider registered", logger.String("rider", name))
	return nil
}

func (r *Registry) RemoveRider(ctx context.Context, name string) error {
	r.rmu.Lock()
	defer r.rmu.Unlock()
	if _, exists := r.riders[name]; !exists {
		return fmt.Errorf("rider %q: %w", name, entity.ErrNotFound)
	}
	delete(r.riders, name)
	r.log.Info(ctx, "rider removed", logger.String("rider", name))
	return nil
}

func (r *Registry) UpdateRiderLocation(ctx context.Context, name string, loc entity.Coord) error {
	rider, err := r.rider(name)
	if err != nil {
		return err
	}
	if err := rider.SetLocation(ctx, loc, r.guardWait); err != nil {
		return fmt.Errorf("update location of rider %q: %w", name, err)
	}
	r.log.Debug(ctx, "rider location updated",
		logger.String("rider", name),
		logger.Any("location", loc),
	)
	return nil
}

func (r *Registry) RiderLocation(ctx context.Context, name string) (entity.Coord, error) {
	rider, err := r.rider(name)
	if err != nil {
		return entity.Coord{}, err
	}
	return rider.Location(ctx, r.guardWait)
}

func (r *Registry) Rider(ctx context.Context, name string) (entity.RiderView, error) {
	rider, err := r.rider(name)
	if err != nil {
		return entity.RiderView{}, err
	}
	return rider.View(ctx, r.guardWait)
}

func (r *Registry) AddDriver(ctx context.Context, name, gender string, age int, vehicle, plate string, loc entity.Coord) error {
	driver, err := entity.NewDriver(name, gender, age, vehicle, plate, loc)
	if err != nil {
		return err
	}

	r.dmu.Lock()
	defer r.dmu.Unlock()
	if _, exists := r.drivers[name]; exists {
		return fmt.Errorf("driver %q: %w", name, entity.ErrDuplicateIdentity)
	}
	r.drivers[name] = driver
	r.driverOrder = append(r.driverOrder, name)
	r.log.Info(ctx, "driver registered",
		logger.String("driver", name),
		logger.String("vehicle", vehicle),
	)
	return nil
}

func (r *Registry) RemoveDriver(ctx context.Context, name string) error {
	r.dmu.Lock()
	defer r.dmu.Unlock()
	if _, exists := r.drivers[name]; !exists {
		return fmt.Errorf("driver %q: %w", name, entity.ErrNotFound)
	}
	delete(r.drivers, name)
	for i, n := range r.driverOrder {
		if n == name {
			r.driverOrder = append(r.driverOrder[:i], r.driverOrder[i+1:]...)
			break
		}
	}
	r.log.Info(ctx, "driver removed", logger.String("driver", name))
	return nil
}

func (r *Registry) UpdateDriverLocation(ctx context.Context, name string, loc entity.Coord) error {
	driver, err := r.driver(name)
	if err != nil {
		return err
	}
	if err := driver.SetLocation(ctx, loc, r.guardWait); err != nil {
		return fmt.Errorf("update location of driver %q: %w", name, err)
	}
	r.log.Debug(ctx, "driver location updated",
		logger.String("driver", name),
		logger.Any("location", loc),
	)
	return nil
}

func (r *Registry) SetDriverAvailability(ctx context.Context, name string, available bool) error {
	driver, err := r.driver(name)
	if err != nil {
		return err
	}
	if err := driver.SetAvailable(ctx, available, r.guardWait); err != nil {
		return fmt.Errorf("set availability of driver %q: %w", name, err)
	}
	r.log.Debug(ctx, "driver availability updated",
		logger.String("driver", name),
		logger.Any("available", available),
	)
	return nil
}

func (r *Registry) AddDriverEarning(ctx context.Context, name string, amount int64) error {
	driver, err := r.driver(name)
	if err != nil {
		return err
	}
	if err := driver.AddEarning(ctx, amount, r.guardWait); err != nil {
		return fmt.Errorf("add earning to driver %q: %w", name, err)
	}
	return nil
}

func (r *Registry) ResetDriverEarnings(ctx context.Context, name string) error {
	driver, err := r.driver(name)
	if err != nil {
		return err
	}
	if err := driver.ResetEarnings(ctx, r.guardWait); err != nil {
		return fmt.Errorf("reset earnings of driver %q: %w", name, err)
	}
	r.log.Info(ctx, "driver earnings reset", logger.String("driver", name))
	return nil
}

// SettleDriver applies the end-of-ride transaction for one driver in a
// single guard hold. Returns false when the driver was no longer available;
// in that case nothing was mutated.
func (r *Registry) SettleDriver(ctx context.Context, name string, fare int64, dest entity.Coord) (bool, error) {
	driver, err := r.driver(name)
	if err != nil {
		return false, err
	}
	settled, err := driver.Settle(ctx, fare, dest, r.guardWait)
	if err != nil {
		return false, fmt.Errorf("settle ride with driver %q: %w", name, err)
	}
	return settled, nil
}

func (r *Registry) Driver(ctx context.Context, name string) (entity.DriverView, error) {
	driver, err := r.driver(name)
	if err != nil {
		return entity.DriverView{}, err
	}
	return driver.View(ctx, r.guardWait)
}

// SnapshotDrivers returns read-only copies of all driver records in
// registration order. Each record is read under its own guard; the snapshot
// as a whole is not one atomic point in time. A record whose guard cannot
// be acquired within the bound is skipped so a stuck driver never blocks
// matching for everyone else.
func (r *Registry) SnapshotDrivers(ctx context.Context) []entity.DriverView {
	r.dmu.RLock()
	ordered := make([]*entity.Driver, 0, len(r.driverOrder))
	for _, name := range r.driverOrder {
		ordered = append(ordered, r.drivers[name])
	}
	r.dmu.RUnlock()

	views := make([]entity.DriverView, 0, len(ordered))
	for _, d := range ordered {
		view, err := d.View(ctx, r.guardWait)
		if err != nil {
			r.log.Warn(ctx, "driver skipped in snapshot",
				logger.String("driver", d.Name()),
				logger.WithError(err),
			)
			continue
		}
		views = append(views, view)
	}
	return views
}

func (r *Registry) rider(name string) (*entity.Rider, error) {
	r.rmu.RLock()
	defer r.rmu.RUnlock()
	rider, exists := r.riders[name]
	if !exists {
		return nil, fmt.Errorf("rider %q: %w", name, entity.ErrNotFound)
	}
	return rider, nil
}

func (r *Registry) driver(name string) (*entity.Driver, error) {
	r.dmu.RLock()
	defer r.dmu.RUnlock()
	driver, exists := r.drivers[name]
	if !exists {
		return nil, fmt.Errorf("driver %q: %w", name, entity.ErrNotFound)
	}
	return driver, nil
}
