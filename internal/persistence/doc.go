// Package persistence contains the external record stores that the
// ready-made rewind commands mutate, and the history journal stores.
//
// Record stores stand in for the application's data store: they apply named
// mutations optimistically and stamp every record with a version, which is
// what commands compare to detect that something else changed a record
// after them.
package persistence
