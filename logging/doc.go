// The Logger interface is the only logging type other packages accept.
// MemoryLogger implements it on top of slog with per logger attributes,
// SlogAdapter wraps an existing *slog.Logger and NoOpLogger discards
// everything (the default wherever a Logger is optional).
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	sm := semanticmemory.New(func(o *semanticmemory.Options) { o.Logger = logger })
package logging
