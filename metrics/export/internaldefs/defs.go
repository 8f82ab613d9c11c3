package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// Series is one labelled value inside a Family.
type Series struct {
	ID    goAccount.MetricID
	Value string
}

// Family is a counter exported under one name, its series told apart by a
// single label.
type Family struct {
	Name   string
	Help   string
	Label  string
	Series []Series
}

// HistogramDef names a latency histogram.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

const (
	AuditDroppedName = "goaccount_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

var CounterFamilies = []Family{
	{
		Name:  "goaccount_signups_total",
		Help:  "Local signup attempts by outcome.",
		Label: "outcome",
		Series: []Series{
			{goAccount.MetricSignupSuccess, "created"},
			{goAccount.MetricSignupWeakPassword, "weak_password"},
			{goAccount.MetricSignupDuplicate, "duplicate"},
		},
	},
	{
		Name:  "goaccount_logins_total",
		Help:  "Password logins by outcome.",
		Label: "outcome",
		Series: []Series{
			{goAccount.MetricLoginSuccess, "succeeded"},
			{goAccount.MetricLoginAccountNotFound, "account_not_found"},
			{goAccount.MetricLoginInvalidCredential, "invalid_credential"},
			{goAccount.MetricLoginThrottled, "throttled"},
		},
	},
	{
		Name:  "goaccount_federated_logins_total",
		Help:  "Federated logins by outcome. started counts provider redirects.",
		Label: "outcome",
		Series: []Series{
			{goAccount.MetricFederatedStarted, "started"},
			{goAccount.MetricFederatedExisting, "existing"},
			{goAccount.MetricFederatedCreated, "created"},
			{goAccount.MetricFederatedRejected, "rejected"},
			{goAccount.MetricFederatedDuplicate, "duplicate"},
		},
	},
	{
		Name:  "goaccount_backend_failures_total",
		Help:  "Identity provider and store faults.",
		Label: "backend",
		Series: []Series{
			{goAccount.MetricProviderFailure, "provider"},
			{goAccount.MetricStoreFailure, "store"},
		},
	},
}

var FederatedLatency = HistogramDef{
	ID:   goAccount.MetricFederatedLatency,
	Name: "goaccount_federated_latency_seconds",
	Help: "Federated login completion latency, provider round trips included.",
}

// HistogramBounds are the engine's bucket upper bounds in seconds.
var HistogramBounds = [8]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// Cumulative turns the engine's per-bucket counts into le-style running
// totals. Missing buckets count as zero.
func Cumulative(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
