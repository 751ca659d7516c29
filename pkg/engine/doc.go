// Package engine holds the working-memory contract consumed by the session
// facade, together with a small in-memory reference implementation.
//
// The reference Memory is intentionally simple: rules match single facts,
// agenda groups are ordered by salience then insertion, processes are driven by
// signals, and timers are cron schedules over either the wall clock or a
// manually advanced pseudo clock.
//
// Invariants:
// - Listener callbacks run synchronously on the goroutine performing the mutation.
// - Internal locks are never held while a listener, rule consequence or
//   iterator consumer runs.
// - Store iteration is weakly consistent: it never snapshots.
//
// Usage:
//
//	kb := engine.NewKnowledgeBase("orders")
//	_ = kb.AddRule(engine.Rule{Name: "large", When: isLarge, Then: flag})
//	wm := engine.New(kb, engine.Config{Logger: zerolog.Nop()})
//	defer wm.Dispose()
//	_, _ = wm.Insert(&Order{Total: 500})
//	fired, _ := wm.FireAllRules()
package engine
