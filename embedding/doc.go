// Package embedding contains core.EmbeddingGenerator implementations that do
// not need a network connection (HashGenerator) and decorators that can wrap
// any generator (CachedGenerator, backed by an expiring go-cache). Provider
// backed generators live in sub packages such as embedding/openai.
package embedding
