// Package coordinator runs export runs of every configured account in the
// background.
//
// The coordinator wakes up on a jittered ticker and walks the accounts in
// configuration order. For each account it starts a FULL run when no full run
// has succeeded within the configured full interval, and a DELTA run
// otherwise. Whether a run actually starts is left to the runner, which
// applies the delta policy and the cross-account scheduler.
//
// # Usage
//
//	c := coordinator.New(exportRunner, store, cfg)
//	go func() { _ = c.Start(ctx) }()
//	// ...
//	_ = c.Stop()
//
// # Error Handling
//
// Failed and denied runs are logged; the coordinator keeps running and tries
// again on the next tick. Start only returns when its context is cancelled.
package coordinator
