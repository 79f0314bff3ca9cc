// Package analysis implements the one-shot structured analysis operations:
// document analysis, classification and batch summarize/sentiment.
//
// Every call is stateless and runs at temperature 0. Replies that should
// carry JSON go through ExtractJSON, which accepts bare JSON or a single
// ```json fenced block and reports anything else as a
// *gateway.MalformedPayloadError.
package analysis
