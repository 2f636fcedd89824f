// Package directory maps login identifiers (email and username) to credential
// records.
//
// Email and username share one identifier namespace: a record is reachable under
// both keys, and inserting a record whose email or username is already taken by
// any record (under either key) fails with [ErrDuplicate] without modifying the
// directory.
//
// [Memory] is an explicit, injected store object (one per engine, never a
// package global). [SQLite] persists records in a local database file using
// migrations bundled with this package.
package directory
