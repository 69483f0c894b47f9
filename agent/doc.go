// Package agent binds a conversation engine to an identity, a toolbox and
// user callbacks.
//
// An Agent is the unit that graphs work with. It exposes:
//
//  1. Conversate: one chat turn through its engine, with the current toolbox
//     offered to the model and the session reachable from tools
//  2. Act: the pre-act, act, post-act hook sequence used by task graphs
//  3. Tool and conversation callbacks, fanned out in registration order
//
// Callbacks registered through the untyped entry points (RegisterToolCallback,
// Builder.WithToolUpdateCallbacks, ...) are validated against a signature
// contract when they are registered. A mismatching function is rejected with a
// *signature.ContractError and nothing is registered.
//
// Other components refer to agents through AgentRef, a non-owning handle.
package agent
