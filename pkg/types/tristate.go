package types

// TriState is the result of a SQL boolean expression: True, False or Unknown.
// Unknown arises from NULL operands.
type TriState uint8

const (
	False TriState = iota
	True
	Unknown
)

// FromBool lifts a two-valued result into TriState.
func FromBool(b bool) TriState {
	if b {
		return True
	}
	return False
}

func (t TriState) IsTrue() bool    { return t == True }
func (t TriState) IsFalse() bool   { return t == False }
func (t TriState) IsUnknown() bool { return t == Unknown }

// Not follows Kleene logic: NOT Unknown is Unknown.
func (t TriState) Not() TriState {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// And follows Kleene logic: False dominates, then Unknown.
func (t TriState) And(other TriState) TriState {
	if t == False || other == False {
		return False
	}
	if t == Unknown || other == Unknown {
		return Unknown
	}
	return True
}

// Or follows Kleene logic: True dominates, then Unknown.
func (t TriState) Or(other TriState) TriState {
	if t == True || other == True {
		return True
	}
	if t == Unknown || other == Unknown {
		return Unknown
	}
	return False
}

func (t TriState) String() string {
	switch t {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}
