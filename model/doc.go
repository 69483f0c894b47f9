// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with chat models inside lmflux.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Normalize tool definitions (ToolDefinition) and carry requested calls
//     on the assistant core.Message
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight stand-ins for tests (EchoModel, ScriptedModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (engine, agents, graphs) remain decoupled from
// vendor SDKs. Complete drains a Generate call into a single final Response,
// which is what the conversation engine consumes.
package model
