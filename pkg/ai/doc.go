// Package ai is the chat-completions client behind the classifier's AI
// fallback. It works against any OpenAI-compatible backend.
//
// The fallback is strictly best-effort: every failure mode returns an
// uncertain label with a classification-unavailable error, and the
// classifier degrades to its rule tier rather than failing the run.
package ai
