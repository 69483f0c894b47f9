// Package engine implements the conversation engine: the tool-calling loop
// that drives a single dialogue with a chat model.
//
// An Engine owns an ordered core.Conversation (seeded with the system prompt),
// the set of tools currently offered to the model and an optional
// conversation-update callback. Chat appends the user message and calls the
// model. While the model requests tool calls, the engine records each call as
// an assistant message, executes it through tool.Invoke, appends the tool
// message and notifies the tool-use callback, then calls the model again. The
// first response without tool calls is appended and returned.
//
// # Failure semantics
//
//   - Unknown tools and rejected arguments are reported inline to the model
//   - Tool function errors and panics abort Chat with a wrapped *tool.ToolError
//   - Model/provider errors propagate unchanged; there is no retry
//   - An optional MaxToolRounds bound aborts runaway loops with ErrMaxToolRounds
//
// # Lifecycle hooks
//
// A CallbackManager can observe (and veto) model and tool calls. Callbacks run
// synchronously in registration order; the first error aborts Chat.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. It belongs to exactly one agent and
// at most one Chat call is in flight at a time.
package engine
