// Package alerts implements per-user price alerts: the admin surface
// for adding and removing them, and the matcher that fires each alert
// exactly once when a collection's floor price reaches its target.
package alerts
