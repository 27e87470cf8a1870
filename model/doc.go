// Package model defines the provider-agnostic chat model abstraction used by
// grounded completion.
//
// A Model streams Response chunks over a channel pair; Collect reduces that to
// the final response for callers that do not care about partial output.
// Providers live in sub packages (openai, anthropic) so the SDKs are only
// linked when used. MockModel covers tests and examples.
package model
