// Package core provides the foundational types shared by every actionweave
// package:
//
//   - Content / Part (the role-tagged transcript exchanged with models)
//   - The error taxonomy (sentinels wrapped by every failure path)
//   - CallContext (the scoped surface handed to action handlers)
//   - CallLimiter (optional bound on model round-trips per run)
//
// The package has no knowledge of orchestration or vendor APIs; it only keeps
// the vocabulary the compiler, resolver and dispatch loop agree on.
package core
