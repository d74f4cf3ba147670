package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Sweeper evicts presence entries whose connection already closed.
type Sweeper interface {
	Sweep() []string
	OnlineUsers() []string
}

// StartPresenceCronJobs runs the presence sweep on schedule, e.g. "@every 1m".
func StartPresenceCronJobs(schedule string, sweeper Sweeper) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() { sweepOnce(sweeper) })
	if err != nil {
		return nil, fmt.Errorf("schedule presence sweep %q: %w", schedule, err)
	}

	c.Start()
	return c, nil
}

func sweepOnce(sweeper Sweeper) {
	evicted := sweeper.Sweep()
	entry := logrus.WithField("online", len(sweeper.OnlineUsers()))
	if len(evicted) > 0 {
		entry.WithField("evicted", evicted).Info("Presence sweep evicted stale users")
		return
	}
	entry.Debug("Presence sweep")
}
