// Package dispatch implements the conversation-turn state machine that
// drives a model through tool calls.
//
// Each iteration resolves the tool directive of the current graph node,
// calls the model, and routes the single logical response:
//
//	one call        -> run it; terminal ends the turn, otherwise advance to it
//	several calls   -> run each in order; neither terminate nor advance
//	text + "stop"   -> the turn ends with the message
//	text otherwise  -> append and ask again with the same directive
//
// A streamed plain-text answer is returned live and never buffered. The loop
// has no internal timeout; the caller's context bounds the turn.
package dispatch
