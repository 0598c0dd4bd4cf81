// Command resync repairs host names copied onto events and optionally seeds
// the sample festival programme into an empty database.
package main

import (
	"context"
	"log"
	"time"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/config"
	"github.com/Badsnus/festival-booking/internal/domain/dto"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger"
	"github.com/spf13/pflag"

	_ "time/tzdata"
)

var (
	dryRun = pflag.Bool("dry-run", false, "report the changes without writing them")
	seed   = pflag.Bool("seed", false, "create the sample events when none exist")
	host   = pflag.String("host", "", "user id that hosts the seeded events (default: the earliest admin)")
)

type operators interface {
	Operator(ctx context.Context, userID string) (dto.Session, error)
}

type eventWriter interface {
	Count(ctx context.Context) (int64, error)
	CreateEvent(ctx context.Context, session dto.Session, input dto.EventInput) (*entity.ClassEvent, error)
}

func main() {
	pflag.Parse()

	cfg := config.Get()
	a, err := app.New(cfg)
	if err != nil {
		log.Panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	defer a.Close(ctx)

	if *seed {
		if err = seedEvents(ctx, a.Services.Roles, a.Services.Events, *host, *dryRun); err != nil {
			logger.Log.Panicf("Failed to seed events: %v", err)
		}
	}

	report, err := a.Services.Events.ResyncHostNames(ctx, dto.SystemSession(), *dryRun)
	if err != nil {
		logger.Log.Panicf("Failed to resync host names: %v", err)
	}
	logger.Log.Infof("Host names resynced (dry-run: %t): scanned=%d updated=%d skipped=%d",
		*dryRun, report.Scanned, report.UpdatedCount, report.Skipped)
}

// seedEvents creates the sample programme under a stored host so the events
// stay editable and resync can resolve their host names.
func seedEvents(ctx context.Context, roles operators, events eventWriter, hostID string, dryRun bool) error {
	count, err := events.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Log.Infof("Skipping seed: %d events already exist", count)
		return nil
	}

	session, err := roles.Operator(ctx, hostID)
	if err != nil {
		return err
	}

	for _, input := range sampleEvents {
		if dryRun {
			logger.Log.Infof("Would create event %q hosted by %s", input.EventName, session.UserID)
			continue
		}
		event, err := events.CreateEvent(ctx, session, input)
		if err != nil {
			return err
		}
		logger.Log.Infof("Created event %s (%s)", event.ID, event.EventName)
	}
	return nil
}
