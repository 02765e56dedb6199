// Package store provides SQLite-backed web storage: string values under
// string keys that survive restarts, the way a browser's localStorage
// does for a single origin.
//
// The REST client keeps its login session here (see rest.SessionAuth).
// SetJSON and GetJSON cover the common case of storing a model as JSON.
//
// Every connection runs in WAL mode with a 5 second busy timeout, so
// several CLI processes can share one file. PRAGMA user_version records
// the file format; Open refuses files from a newer build.
//
// Keys come back in insertion order. Overwriting a key keeps its place.
package store
