// Package store provides the persisted key/value and ranked storage the
// engine's storage, global_storage, and leaderboard nodes operate on.
//
// Values are per-user or global named scalars, stored as text. Numeric
// operations (increment, ranking) parse the text as a decimal number and
// treat unparseable values as 0, matching the engine's loose coercion.
//
// The backing store is SQLite with WAL mode and a single-writer connection
// pool. Get/Set/Incr are individually atomic; Incr runs its
// read-modify-write inside one transaction so concurrent walks touching
// the same key cannot lose updates.
package store
