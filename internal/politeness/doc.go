// Package politeness paces requests and adapts to blocking signals.
//
// One Controller is shared by all workers of a crawl. Before each fetch it
// applies the optional request-rate gate, any accumulated global backoff
// (decaying it by a fixed step on every request) and a jittered delay whose
// range depends on the proxy class. After each response it classifies the
// status: 403, 429 and 503 raise the backoff and impose a short penalty,
// while a run of successes slowly lowers it again.
//
// The state lives behind a single mutex; sleeping always happens outside the
// lock and stops when the context is cancelled.
package politeness
