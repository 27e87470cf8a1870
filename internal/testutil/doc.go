// Package testutil contains fluent builders used across tests to construct
// memory records and conversation contents with little boilerplate. Not
// intended for production usage.
package testutil
