// Package classify determines the intent category of a prompt before policy
// evaluation.
//
// The package is built around three pieces:
//
//   - Oracle: the external classification capability. An Oracle maps prompt
//     text to a category drawn from an allowed set, and may fail in several
//     ways (unreachable, timeout, unparseable output, category outside the
//     allowed set).
//   - Cache: a concurrency-safe store of prior successful classifications,
//     keyed by normalized prompt text. Hits bypass the oracle entirely.
//   - Classifier: the boundary that ties the two together. Classify is total:
//     every oracle failure mode is converted into the sentinel "unclassified"
//     result before it can reach the policy engine, and failure results are
//     never written to the cache.
//
// The sentinel category is reserved at policy load time, so a sentinel result
// is guaranteed to match no rule and collapses to the engine's fail-closed
// BLOCK default.
package classify
