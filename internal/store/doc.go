// Package store keeps the most recent timing report in memory and persists the
// last successful one to a JSON file so a restarted server can serve it before
// its first recompute.
package store
