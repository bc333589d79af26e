// Package stream coalesces the partial responses of a streaming model call.
//
// The Aggregator peeks at the first response. A plain-text stream is handed
// back live (the peeked chunk replayed first, nothing buffered); a tool-call
// stream is drained, its deltas deep-merged and its tool call fragments
// regrouped by index into one non-partial model.Response.
package stream
