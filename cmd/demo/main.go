// Demo caller that seeds sample riders and drivers and walks one ride
// through the full lifecycle: match, bill, settle, report earnings,
// shut down.
package main

import (
	"context"
	"time"

	"github.com/khanhle/gocab/configs"
	"github.com/khanhle/gocab/internal/dispatch"
	"github.com/khanhle/gocab/internal/domain/entity"
	"github.com/khanhle/gocab/internal/registry"
	"github.com/khanhle/gocab/pkg/logger"
)

func main() {
	config, err := configs.LoadConfig(".")
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger("gocab-demo", false)
	ctx := context.Background()

	reg := registry.New(config.GuardTimeout(), log)
	pipeline := dispatch.New(reg, dispatch.Options{
		Workers:          config.DispatchWorkers,
		QueuePoll:        config.QueuePoll(),
		MaxMatchDistance: config.MaxMatchDistance,
		FareRatePerUnit:  config.FareRatePerUnit,
		Logger:           log,
	})

	// Onboard three riders.
	seed(log, reg.AddRider(ctx, "khanh", "M", 23))
	seed(log, reg.UpdateRiderLocation(ctx, "khanh", entity.Coord{X: 0, Y: 0}))
	seed(log, reg.AddRider(ctx, "thu", "F", 22))
	seed(log, reg.UpdateRiderLocation(ctx, "thu", entity.Coord{X: 10, Y: 0}))
	seed(log, reg.AddRider(ctx, "blue", "M", 2))
	seed(log, reg.UpdateRiderLocation(ctx, "blue", entity.Coord{X: 15, Y: 6}))

	// Onboard three drivers.
	seed(log, reg.AddDriver(ctx, "driver-1", "M", 22, "Swift", "KA-01-12345", entity.Coord{X: 10, Y: 1}))
	seed(log, reg.AddDriver(ctx, "driver-2", "M", 29, "Swift", "KA-01-12346", entity.Coord{X: 11, Y: 10}))
	seed(log, reg.AddDriver(ctx, "driver-3", "M", 24, "Swift", "KA-01-12347", entity.Coord{X: 5, Y: 3}))

	pipeline.Start(ctx)

	// No driver is within range of khanh; rejected synchronously.
	if ticket, err := pipeline.Submit(ctx, "khanh", entity.Coord{X: 0, Y: 0}, entity.Coord{X: 20, Y: 1}); err != nil {
		log.Error(ctx, "submit failed", logger.WithError(err))
	} else {
		log.Info(ctx, "ride outcome",
			logger.String("rider", "khanh"),
			logger.Any("status", ticket.Status()),
		)
	}

	// thu is right next to driver-1; this one goes through the pipeline.
	ticket, err := pipeline.Submit(ctx, "thu", entity.Coord{X: 10, Y: 0}, entity.Coord{X: 15, Y: 3})
	if err != nil {
		log.Error(ctx, "submit failed", logger.WithError(err))
	} else {
		log.Info(ctx, "waiting for ride request to complete")
		status, done := ticket.Await(5 * time.Second)
		if !done {
			log.Warn(ctx, "ride request processing timed out",
				logger.Any("last_status", status))
		} else {
			log.Info(ctx, "ride outcome",
				logger.String("rider", "thu"),
				logger.Any("status", status),
			)
		}
	}

	// Rider arrived; move them to the destination.
	seed(log, reg.UpdateRiderLocation(ctx, "thu", entity.Coord{X: 15, Y: 3}))

	// blue finds nobody: driver-1 is now unavailable, the rest are too far.
	if ticket, err := pipeline.Submit(ctx, "blue", entity.Coord{X: 15, Y: 6}, entity.Coord{X: 20, Y: 4}); err != nil {
		log.Error(ctx, "submit failed", logger.WithError(err))
	} else {
		log.Info(ctx, "ride outcome",
			logger.String("rider", "blue"),
			logger.Any("status", ticket.Status()),
		)
	}

	// Earnings report.
	for _, d := range reg.SnapshotDrivers(ctx) {
		log.Info(ctx, "driver earnings",
			logger.String("driver", d.Name),
			logger.Int64("earned", d.Earnings),
		)
	}

	log.Info(ctx, "initiating shutdown")
	if !pipeline.Stop(config.ShutdownTimeout()) {
		log.Warn(ctx, "dispatch workers did not stop within bound",
			logger.Duration("bound", config.ShutdownTimeout()))
	}
	log.Info(ctx, "done")
}

// seed logs and moves on; a failed seeding call is a demo bug, not a
// reason to crash the walkthrough.
func seed(log logger.Logger, err error) {
	if err != nil {
		log.Error(context.Background(), "seeding call failed", logger.WithError(err))
	}
}
