// Package syntax is a thin, read-only view over tree-sitter parse trees. It exposes just what the documentation patch engine needs: node kinds, byte spans, start points,
// named fields, named children/siblings, and pattern (query) evaluation that returns ordered captures.
//
// A Tree owns the source buffer it was parsed from. Nodes borrow both the tree and the buffer and must not be used after Tree.Close. The buffer is never mutated; all
// spans refer to the original bytes.
//
// Patterns are compiled once per grammar with CompilePattern and may be shared across goroutines. Parsing creates a fresh parser per call, so concurrent Parse calls
// on different buffers are safe.
package syntax
