// Package aggregates defines the write boundaries of the nursery domain.
//
// Each aggregate owns one transaction per call. Batch lifecycle writes keep the batch row,
// the stage history log and the bed occupancy ledger consistent; measurement writes validate
// against the batch they sample. Contracts carry no persistence or transport detail.
package aggregates
