package types

// StringField represents a variable-length string field
type StringField struct {
	Value string
}

func NewStringField(value string) *StringField {
	return &StringField{Value: value}
}

func (f *StringField) Compare(op Predicate, other Field) (bool, error) {
	otherField, ok := other.(*StringField)
	if !ok {
		return false, mismatch(op, f, other)
	}

	if op == Like {
		return matchLike(f.Value, otherField.Value), nil
	}
	return compareOrdered(f.Value, otherField.Value, op)
}

func (f *StringField) Type() Type {
	return StringType
}

func (f *StringField) String() string {
	return f.Value
}

func (f *StringField) Equals(other Field) bool {
	otherField, ok := other.(*StringField)
	if !ok {
		return false
	}
	return f.Value == otherField.Value
}

// matchLike implements SQL LIKE with % (any run) and _ (one rune).
func matchLike(s, pattern string) bool {
	str, pat := []rune(s), []rune(pattern)
	si, pi := 0, 0
	starPi, starSi := -1, 0

	for si < len(str) {
		switch {
		case pi < len(pat) && (pat[pi] == '_' || pat[pi] == str[si]):
			si++
			pi++
		case pi < len(pat) && pat[pi] == '%':
			starPi, starSi = pi, si
			pi++
		case starPi >= 0:
			starSi++
			si = starSi
			pi = starPi + 1
		default:
			return false
		}
	}

	for pi < len(pat) && pat[pi] == '%' {
		pi++
	}
	return pi == len(pat)
}
