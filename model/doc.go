// Package model defines the provider-agnostic request/response shapes the
// dispatch loop exchanges with a language model, plus a scripted MockModel.
//
// Providers (model/openai, model/anthropic) implement Model so the loop never
// branches on a vendor. Streaming providers emit Partial responses that carry
// the raw vendor-neutral Delta; a final non-partial Response carries the
// assembled Content and a normalized FinishReason.
package model
