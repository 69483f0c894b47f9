// Package session keeps named sessions alive between invocations so that
// state written by tools in one turn is visible in the next.
package session
