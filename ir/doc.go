// Package ir defines the intermediate representation for warpsync.
//
// The IR is designed to be:
//   - Small: only the NVVM constructs that matter around synchronization
//   - Arena-based: expressions live in a per-function arena and are referenced by handle
//   - Symbolic: calls name their callee, so inserting declarations never invalidates call sites
//
// # Structure
//
// The IR is organized around a Module type that contains:
//   - Types: All type definitions used by the module
//   - Functions: Declarations (nil Body) and definitions, in symbol order
//
// A Function owns an expression arena and a statement tree. Statements
// live in Blocks; a *Statement taken from a Block stays valid while the
// Block is not resized, which is what rewrite patterns rely on when they
// replace an operation in place.
//
// # Symbols
//
// SymbolTable indexes functions by name and provides find-or-create
// semantics for declarations such as llvm.nvvm.barrier0.
//
// # Verification
//
// Validate checks handles, symbols, call signatures and control flow.
// It is run between passes by the pass manager.
package ir
