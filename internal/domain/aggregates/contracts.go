package aggregates

// WriteTxOwnership defines who owns write transaction boundaries.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate means aggregate write methods start/manage atomic DB transactions internally.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ConcurrencyPolicy names how concurrent writers to one aggregate are reconciled.
type ConcurrencyPolicy string

const (
	// ConcurrencyVersionCAS rejects a write whose read version is stale.
	ConcurrencyVersionCAS ConcurrencyPolicy = "version_cas"
)

// Contract describes aggregate-level policy expectations.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	Concurrency      ConcurrencyPolicy
	Notes            string
}

// Aggregate is the common marker for all aggregate contracts.
type Aggregate interface {
	Contract() Contract
}

// RequiresAggregateOwnedTx returns true when write transaction ownership is aggregate-owned.
func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

var TestRequestAggregateContract = Contract{
	Name:             "TestRequest",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Concurrency:      ConcurrencyVersionCAS,
	Notes:            "Sub-tests, job cards and documents are replaced as a whole; a stale version is a conflict, never merged.",
}
