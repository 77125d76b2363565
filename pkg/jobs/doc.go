// Package jobs contains the scheduled billing work: the expiry sweep that
// suspends subscribers whose paid window has lapsed, the daily revenue
// rollup, and the pending-queue gauge refresh. The easyisp-billing worker
// drives these on cron schedules.
package jobs
