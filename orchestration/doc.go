// Package orchestration compiles the sequencing expressions attached to
// actions into a Graph: a transition table from "the state right after
// action X" (or "start of scope S") to the Rule that decides which actions
// the model may call next.
//
// Nodes are plain strings. Action names and scope names share one keyspace,
// so a scope must not be named like an action that is the target of a
// different rule.
package orchestration
