// Package signature validates user-supplied callbacks against a declared
// contract before they are registered.
//
// A Contract lists the expected parameters (position and type) and return
// types. Check rejects anything that does not match exactly with a
// *ContractError whose text names the callback and the expected signature,
// for example:
//
//	on_tool_use must be defined as func(agent *agent.Agent, call tool.Request, result any, session *core.Session)
//
// Go does not keep parameter names at run time, so names are only used to
// render the expected signature. A position accepts any declared type the
// passed value is assignable to; a nil type stands for any.
//
// Checks run once at registration time, never per invocation.
package signature
