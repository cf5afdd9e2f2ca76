package filter

// Predicate is a condition over a single identifier column.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package

	// Target returns the column of the filtered table the predicate restricts.
	Target() string
}

// InSet matches rows whose Column holds one of Values.
//
//	<column> IN (<values>)
type InSet struct {
	Column string
	Values []int64
}

func (InSet) predicateNode() {}

// Target implements Predicate.
func (p InSet) Target() string { return p.Column }

// Mapped matches rows whose Column is linked to one of Values through the
// grid-to-country mapping table, where Key is the mapping column the values
// belong to.
//
//	<column> IN (SELECT DISTINCT <column> FROM pg2c WHERE <key> IN (<values>))
type Mapped struct {
	Column string
	Key    string
	Values []int64
}

func (Mapped) predicateNode() {}

// Target implements Predicate.
func (p Mapped) Target() string { return p.Column }
