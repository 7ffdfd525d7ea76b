package aggregates

import "strings"

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means every write method opens and commits its own transaction.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy defines how aggregate contracts should expose reads.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped allows only reads needed for invariant decisions in write flows.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
	// ReadPolicyTableRepoQueries keeps batch lists, batch detail and analytics on table repos.
	ReadPolicyTableRepoQueries ReadPolicy = "table_repo_queries"
)

// Contract describes what a nursery aggregate owns and how it locks.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	// LockOrder lists the tables write paths row-lock, in acquisition order. Beds are always
	// last and, when several are held, taken in ascending id order.
	LockOrder []string
	Notes     string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

// Locks reports whether write paths take row locks on table.
func (c Contract) Locks(table string) bool {
	for _, t := range c.LockOrder {
		if strings.EqualFold(t, table) {
			return true
		}
	}
	return false
}

// LocksBefore reports whether a is acquired ahead of b. Tables the contract does not lock
// never order before anything.
func (c Contract) LocksBefore(a, b string) bool {
	ia, ib := -1, -1
	for i, t := range c.LockOrder {
		if strings.EqualFold(t, a) {
			ia = i
		}
		if strings.EqualFold(t, b) {
			ib = i
		}
	}
	return ia >= 0 && ib >= 0 && ia < ib
}
