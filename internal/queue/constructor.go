package queue

import (
	"crosspost/internal/scheduler"
)

const (
	TaskTypeSchedulerRun   = "scheduler:run"
	TaskTypeMetricsRefresh = "metrics:refresh"
)

type Queue struct {
	s *scheduler.Scheduler
}

func NewQueue(s *scheduler.Scheduler) *Queue {
	return &Queue{s: s}
}
