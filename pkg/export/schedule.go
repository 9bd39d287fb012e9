package export

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/saturnines/repsly-export/pkg/errors"
	"github.com/saturnines/repsly-export/pkg/logging"
)

// Schedule calls run on every tick of the standard cron expression until
// ctx is done. A tick that fires while the previous run is still going is
// skipped. Run errors are logged and do not stop the schedule.
func Schedule(ctx context.Context, expr string, run func(context.Context) error) error {
	log := logging.FromContext(ctx).WithField("schedule", expr)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))))
	_, err := c.AddFunc(expr, func() {
		log.Info("scheduled export starting")
		if err := run(ctx); err != nil {
			log.WithError(err).Error("scheduled export failed")
		}
	})
	if err != nil {
		return errors.WrapError(err, errors.ErrConfiguration, "invalid schedule")
	}

	c.Start()
	log.Info("waiting for schedule")
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
