// Package rate counts failed password logins in Redis and refuses further
// attempts once a budget is spent.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Keys are
// "<prefix>:e:<email>" and, with PerIP, "<prefix>:ip:<address>". A window
// ends when its key expires, not when a login succeeds elsewhere.
package rate
