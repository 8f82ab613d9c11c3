// Package prometheus renders goAccount engine counters and the federated
// latency histogram in Prometheus text exposition format. Callers mount
// Handler on their own mux; nothing is registered globally.
package prometheus
