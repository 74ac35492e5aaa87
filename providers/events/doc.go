// Package events defines the run-event side channel of the workflow engine.
//
// Events are published best-effort: the engine never waits on a Sink and a
// failed publish never fails a run. The MQTT publisher lives in
// [github.com/leofalp/aigraph/providers/events/mqtt].
package events
