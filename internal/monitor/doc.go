// Package monitor provides the business boundary for PulseWatch's clinical
// alert engine. It defines the rule engine (pure threshold classification),
// the bounded live alert store, the dual-sink fan-out writer, the vitals
// poller, the merge/query service, and the domain models.
package monitor
