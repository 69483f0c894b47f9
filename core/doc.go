// Package core provides the foundational domain types shared by every lmflux
// package. It defines:
//
//   - Messages and the ordered Conversation sent to a model provider
//   - LLMOptions (generation parameters forwarded to providers)
//   - Sessions and their Context (per-invocation key/value state threaded
//     through task graph runs and mesh queries)
//
// The package keeps provider, tool and orchestration concerns out of scope so
// that higher layers (engine, agent, graph) can depend on it without cycles.
package core
