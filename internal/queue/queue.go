package queue

import (
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

// enqueueUnique enqueues a tick task deduplicated over the tick interval: a
// run still executing when the next tick fires does not stack a duplicate.
func enqueueUnique(client *asynq.Client, taskType string) error {
	task := asynq.NewTask(taskType, nil)

	_, err := client.Enqueue(task, asynq.Unique(time.Minute))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func EnqueueSchedulerRun(client *asynq.Client) error {
	return enqueueUnique(client, TaskTypeSchedulerRun)
}

func EnqueueMetricsRefresh(client *asynq.Client) error {
	return enqueueUnique(client, TaskTypeMetricsRefresh)
}
