// Package scheduler triggers jobs in-process on cron or interval schedules.
//
// The scheduler is responsible only for:
//   - registering schedules
//   - computing next trigger times
//   - running each job with a timeout, skipping a trigger while the previous run is in flight
package scheduler
