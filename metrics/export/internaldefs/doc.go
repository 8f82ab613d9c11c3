// Package internaldefs maps engine MetricIDs onto labelled families, such as
// goaccount_logins_total{outcome="throttled"}. The Prometheus and
// OpenTelemetry exporters both read these tables, so they expose identical
// series.
package internaldefs
