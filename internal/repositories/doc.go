// Package repositories implements SQLite persistence for the run journal.
//
// Key Implementations:
//   - [RunRepository] : one summary row per transfer run, listed newest first by the history command
//
// The schema lives in the shared migrations runner; open the database with [shared.OpenJournal].
package repositories
