// Package collab declares the narrow interfaces the decompilation core
// uses to talk to its external collaborators: a PE import-name resolver
// and a constant-name database. Both are function types rather
// than single-method interfaces — idiomatic Go for a single synchronous
// callback, and it lets a caller hand in a closure instead of defining a
// type.
package collab

// ImportNameResolver resolves the absolute address of an indirect call's
// target (typically a RIP-relative IAT slot) to a symbolic import name
// such as "kernelbase!CreateFileW". It returns ok=false when the address
// is not a known import.
//
// The core invokes this synchronously, once per indirect call site, while
// building the IR for a single function; a resolver shared across
// concurrent decompilations of different functions must be safe for
// concurrent use by its caller — the core itself never calls it from
// more than one goroutine.
type ImportNameResolver func(absoluteAddress uint64) (name string, ok bool)

// ConstantNameProvider formats a raw integer value as a named enum member
// of enumFullName, if the database recognizes it. It backs the
// MapNamedReturnConstants / MapNamedRetAssignConstants passes.
type ConstantNameProvider func(enumFullName string, value uint64) (name string, ok bool)

// NoImportNames is an ImportNameResolver that never resolves anything —
// every indirect call renders as a raw indirect address. Useful as a
// caller default, and in tests that don't exercise import resolution.
func NoImportNames(uint64) (string, bool) { return "", false }

// NoConstantNames is a ConstantNameProvider that never recognizes a value.
func NoConstantNames(string, uint64) (string, bool) { return "", false }
