// Package session is the stateful rule session facade.
//
// A Session owns one working memory and exposes it through several contracts
// at once: fact operations, live store views, agenda control, the process
// runtime, listener registration and command execution.
//
// Invariants:
// - A session is Active or Disposed. Every operation except Dispose, Destroy,
//   ID and IsAlive fails with ErrSessionDisposed once disposed.
// - Dispose never fails and is idempotent. Auxiliary resources are closed
//   first and their errors are only logged.
// - A batch command is bracketed by StartBatchExecution and exactly one
//   EndBatchExecution, even when a sub-command fails.
// - Listener callbacks run synchronously inside the raising mutation.
//
// Usage:
//
//	kb := engine.NewKnowledgeBase("orders")
//	sess := session.NewFromKnowledgeBase(kb, engine.Config{}, session.WithLogger(logger))
//	defer sess.Dispose()
//	_, _ = sess.Insert(&Order{Total: 500})
//	fired, _ := sess.FireAllRules()
package session
