// Package storage is the SQLite persistence layer backing the dispatch
// subsystem: the Telegram config rows, the two attachment tiers, the
// accounting recipient sessions and transactions, and the notification log.
//
// Business records (service requests, profiles) are owned elsewhere; this
// store only reads the few columns the dispatch layer consumes.
package storage
