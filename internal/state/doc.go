// Package state persists the run state between runs.
//
// The state is a single model.RunState value: the saved counter, when the
// run completed and its final statistics. It is loaded once at startup to
// pre-seed the saved counter and written once when the run ends.
package state
