// Package services holds the learnkeeper core: credential checks, the user
// record registry, the quiz performance ledger, statistics and sessions.
//
// Every service works through a store.Store, so the same code runs on the
// JSON file driver and on SQLite. Operations that touch several datasets
// (registration, deletion) run in a single Update transaction.
package services
