package queue

import (
	"log"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron"
)

// Driver owns the periodic trigger. It is constructed once by the process
// entry point and exposes Start/Stop; ticks go through the task queue so a
// slow run never overlaps with the next one.
type Driver struct {
	c      *cron.Cron
	client *asynq.Client
}

func NewDriver(client *asynq.Client) *Driver {
	return &Driver{
		c:      cron.New(),
		client: client,
	}
}

func (d *Driver) Start() error {
	err := d.c.AddFunc("@every 00h01m00s", func() {
		if err := EnqueueSchedulerRun(d.client); err != nil {
			slog.Info(err.Error())
		}
		if err := EnqueueMetricsRefresh(d.client); err != nil {
			slog.Info(err.Error())
		}
	})
	if err != nil {
		return err
	}

	d.c.Start()
	log.Println("scheduler driver started, ticking every minute")
	return nil
}

func (d *Driver) Stop() {
	d.c.Stop()
}
