// Package engine is the storage-facing boundary of the processor: it
// decodes uploaded files into sample buffers, runs separation or a
// named effect, encodes results back to disk, and reports metadata.
//
// The engine is stateless apart from its directory configuration.
// Every operation is synchronous and safe to call concurrently for
// different source files; callers are responsible for not racing two
// writes to the same deterministic output name.
package engine
