// Package batch drives the access-key pipeline for one run.
//
// A Processor validates the credential once and then, for every key,
// decodes → enriches → synthesizes → persists. Each key is processed inside a
// failure boundary: any error or panic becomes that key's Outcome and the
// loop moves on. Only credential failure aborts the run.
//
// STATE MACHINE:
//
//	NotStarted → CredentialPending → Aborted   (credential invalid; terminal)
//	                               → Running → Finished
//
// CONCURRENCY:
//
// With Workers <= 1 keys are processed sequentially in input order. With more
// workers a bounded pool processes keys concurrently; each worker writes only
// its own outcome slot and counters are aggregated after the pool drains, so
// no counter is shared between goroutines. Outcomes are always reported to the
// observer in input order. The context is checked before each key; keys not
// started when it is cancelled are recorded as CANCELED errors.
package batch
