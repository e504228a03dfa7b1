package plan

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	dberror "recsrc/pkg/error"
)

// Document is the YAML form of a plan: named tables and one operator tree.
//
//	name: big-orders
//	tables:
//	  orders:
//	    columns: [{name: id, type: INT}, {name: total, type: INT}]
//	    rows: [[1, 40], [2, 90]]
//	root:
//	  filter:
//	    predicate: {compare: {op: ">", left: {column: total}, right: {value: 50}}}
//	    input: {scan: {table: orders}}
type Document struct {
	Name   string               `yaml:"name"`
	Tables map[string]TableSpec `yaml:"tables"`
	Root   Node                 `yaml:"root"`
}

// TableSpec declares a relation. Rows are literal data; Source reads the
// relation from a database/sql driver instead.
type TableSpec struct {
	Columns []ColumnSpec `yaml:"columns"`
	Rows    [][]any      `yaml:"rows,omitempty"`
	Source  *SourceSpec  `yaml:"source,omitempty"`
}

type ColumnSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// SourceSpec is a query run through a database/sql driver ("sqlite" or "pgx").
type SourceSpec struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Query  string `yaml:"query"`
}

// Node is one operator. Exactly one field must be set.
type Node struct {
	Scan   *ScanNode   `yaml:"scan,omitempty"`
	Filter *FilterNode `yaml:"filter,omitempty"`
	First  *FirstNode  `yaml:"first,omitempty"`
}

// ScanNode reads a table. Alias qualifies its columns ("o.id"); it defaults
// to the table name.
type ScanNode struct {
	Table string `yaml:"table"`
	Alias string `yaml:"as,omitempty"`
}

type FilterNode struct {
	Predicate  Predicate       `yaml:"predicate"`
	Quantifier *QuantifierSpec `yaml:"quantifier,omitempty"`
	Input      Node            `yaml:"input"`
}

// QuantifierSpec turns a filter into an ANY / ALL test. Column is the
// quantified comparison; Select limits which rows belong to the set.
type QuantifierSpec struct {
	Kind    string     `yaml:"kind"`
	Negated bool       `yaml:"negated,omitempty"`
	Select  *Predicate `yaml:"select,omitempty"`
	Column  *Predicate `yaml:"column,omitempty"`
}

type FirstNode struct {
	Limit int64 `yaml:"limit"`
	Input Node  `yaml:"input"`
}

// Predicate is a boolean expression. Exactly one field must be set.
type Predicate struct {
	Compare  *CompareSpec  `yaml:"compare,omitempty"`
	And      []Predicate   `yaml:"and,omitempty"`
	Or       []Predicate   `yaml:"or,omitempty"`
	Not      *Predicate    `yaml:"not,omitempty"`
	IsNull   *Operand      `yaml:"is_null,omitempty"`
	Literal  string        `yaml:"literal,omitempty"`
	Subquery *SubquerySpec `yaml:"subquery,omitempty"`
}

type CompareSpec struct {
	Op    string  `yaml:"op"`
	Left  Operand `yaml:"left"`
	Right Operand `yaml:"right"`
}

// Operand is a column reference, a constant, or NULL.
type Operand struct {
	Column string `yaml:"column,omitempty"`
	Value  any    `yaml:"value,omitempty"`
	Null   bool   `yaml:"null,omitempty"`
}

// SubquerySpec is a nested plan evaluated as a boolean. Its predicates may
// reference columns of the enclosing plan.
type SubquerySpec struct {
	Recursive bool `yaml:"recursive,omitempty"`
	Node      `yaml:",inline"`
}

// Parse decodes a plan document, rejecting unknown keys.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, "malformed plan document").
			WithOperation("Parse", "plan").
			WithDetail(err.Error())
	}
	return &doc, nil
}

// LoadFile reads and parses a plan document from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read plan %s", path)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load plan %s", path)
	}
	if doc.Name == "" {
		doc.Name = path
	}
	return doc, nil
}
