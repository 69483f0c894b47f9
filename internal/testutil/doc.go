// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing core objects (sessions, messages, tool calls)
// and scripted models. They are not intended for production usage.
package testutil
