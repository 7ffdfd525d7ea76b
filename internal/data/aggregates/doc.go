// Package aggregates implements the nursery's invariant-owning write paths.
//
// Each aggregate composes table repos from internal/data/repos and owns the transaction
// boundary of its writes. The capacity ledger runs inside those transactions so that bed
// occupancy, batch state and stage history commit together or not at all.
package aggregates
