// Package mesh connects agents so that they can delegate to each other, and
// records who talked to whom.
//
// Connecting agent A to agent B installs on A a tool named "talk_to_<B>" with
// a single required "query" parameter. Calling it forwards the query to B's
// Conversate on the mesh session and returns B's reply together with a fresh
// trace id. Each call produces exactly one AgentInteraction: B's side (request
// and response message ids) is recorded when B answers, and A's side (the
// message that carried the tool call) is attached by a tool callback installed
// on A once the tool result carries the trace id. Results that are not
// PeerResult values (or mappings with a "__trace_id" key) are ignored by the
// callback; the tool call itself still succeeds.
//
// Query issues a top-level request to one agent and records a UserInteraction
// (provisional while the request is in flight, replaced by the final record).
//
// Renderers turn a Snapshot of the mesh into Markdown or a Mermaid chart and
// are pure functions of that snapshot.
package mesh
