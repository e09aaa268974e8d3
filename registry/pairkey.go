package registry

// PairKey identifies an unordered pair of drugs. The two IDs are stored in
// lexical order so that NewPairKey(a, b) == NewPairKey(b, a).
type PairKey struct {
	first  DrugID
	second DrugID
}

// NewPairKey builds the key for the pair (a, b) in either order
func NewPairKey(a, b DrugID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{first: a, second: b}
}

// Drugs returns both members in key order
func (k PairKey) Drugs() (DrugID, DrugID) {
	return k.first, k.second
}

// IsSelf reports whether both members are the same drug
func (k PairKey) IsSelf() bool {
	return k.first == k.second
}

func (k PairKey) String() string {
	return string(k.first) + " + " + string(k.second)
}
