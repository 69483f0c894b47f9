// Package task runs side-effecting tasks in dependency order.
//
// A Graph holds Task nodes connected by ordering edges. Edges carry no data:
// tasks communicate through the shared core.Session that Run creates for the
// whole run. Each task runs PreRun, Run and PostRun in that order.
//
// Run computes a topological order first. A cyclic graph fails with a
// *CycleError (matching ErrCycle) before any task runs. Tasks then execute
// one at a time; the first failure aborts the rest of the order.
//
// Loop wraps a nested Graph that is run repeatedly on the same session, and
// renders as a subgraph with a loopback edge.
package task
