// Package log captures protocol events from the discovery and session
// layers: published and received payloads, discarded inbox messages with
// their discard reason, connect-flow state changes, and errors.
//
// Events are structured records with a compact CBOR file encoding.
// Applications choose where events go by passing a Logger: FileLogger
// persists them, ZerologAdapter mirrors them to a console logger, and
// MultiLogger fans out to several sinks at once. No discarded message is
// ever dropped silently; the matching and requeue logic always emits a
// discard event with its reason.
package log
