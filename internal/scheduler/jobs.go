package scheduler

import (
	"fmt"

	"github.com/go-co-op/gocron/v2"
)

// ClearViewCacheJobID is the id of the view cache cleanup job.
const ClearViewCacheJobID = "clear_view_cache"

// AddClearViewCacheJob schedules clear on the given cron schedule.
func (s *Scheduler) AddClearViewCacheJob(schedule string, clear JobFunc) error {
	if err := s.AddSingletonJob(
		ClearViewCacheJobID,
		"Clear View Cache",
		"Drops cached bank record views so the next request fetches fresh data",
		schedule,
		gocron.CronJob(schedule, false),
		clear,
	); err != nil {
		return fmt.Errorf("failed to add clear view cache job: %w", err)
	}
	return nil
}
