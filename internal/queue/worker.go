package queue

import (
	"context"
	"errors"
	"log"

	"github.com/hibiken/asynq"

	"crosspost/internal/scheduler"
)

func (q *Queue) HandleSchedulerRun(ctx context.Context, task *asynq.Task) error {
	result, err := q.s.RunScheduler(ctx)
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			log.Println("scheduler run still in progress, skipping tick")
			return nil
		}
		return err
	}

	if result.Processed > 0 {
		log.Printf("scheduler run processed %d posts", result.Processed)
	}
	return nil
}

func (q *Queue) HandleMetricsRefresh(ctx context.Context, task *asynq.Task) error {
	processed, err := q.s.RunMetricsRefresh(ctx)
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			log.Println("metrics refresh still in progress, skipping tick")
			return nil
		}
		return err
	}

	if processed > 0 {
		log.Printf("metrics refresh processed %d posts", processed)
	}
	return nil
}
