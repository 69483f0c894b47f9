// Package memory stores notes that agents keep across turns of a session and
// exposes them as tools (remember, recall, forget).
//
// Notes are scoped by session id. The in-memory store is process local; it
// lives as long as the process and is meant for demos, tests and CLI runs.
package memory
