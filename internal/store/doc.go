// Package store provides SQLite-backed storage for user profiles and the
// analytics event log.
//
// Tables:
//   - profiles: one row per user, rotations stored as a JSON column
//   - events: append-only analytics hits, one row per Tracker call
//
// # Ordering
//
// Event reads order by the autoincrement id, never by timestamp, so a replay
// of the same conversation always lists events in the order they were
// written even when the clock is fixed.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Store satisfies profile.Store and analytics.Sink.
package store
