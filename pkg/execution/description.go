package execution

import "strings"

// Operator kinds reported by Describe.
const (
	KindFilter    = "filter"
	KindTableScan = "table_scan"
	KindFirstRows = "first_rows"
	KindSQLScan   = "sql_scan"
	KindSubquery  = "subquery"
)

// Description is one node of an operator tree as seen by EXPLAIN.
type Description struct {
	Kind     string        `json:"kind" yaml:"kind"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Children []Description `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tokens flattens the tree into a nested token stream:
// begin, type:<kind>, [detail:<detail>], <children...>, end.
func (d Description) Tokens() []string {
	tokens := []string{"begin", "type:" + d.Kind}
	if d.Detail != "" {
		tokens = append(tokens, "detail:"+d.Detail)
	}
	for _, child := range d.Children {
		tokens = append(tokens, child.Tokens()...)
	}
	return append(tokens, "end")
}

// String renders the tree with two-space indentation per level.
func (d Description) String() string {
	var b strings.Builder
	d.write(&b, 0)
	return b.String()
}

func (d Description) write(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString("-> ")
	b.WriteString(d.Kind)
	if d.Detail != "" {
		b.WriteString(" [")
		b.WriteString(d.Detail)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, child := range d.Children {
		child.write(b, depth+1)
	}
}
