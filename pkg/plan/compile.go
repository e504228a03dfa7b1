package plan

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	dberror "recsrc/pkg/error"
	"recsrc/pkg/execution"
	"recsrc/pkg/execution/scanner"
	"recsrc/pkg/request"
	"recsrc/pkg/tuple"
	"recsrc/pkg/types"
)

// Opener opens a database/sql handle for a table source.
type Opener func(driver, dsn string) (*sql.DB, error)

type options struct {
	open Opener
}

type Option func(*options)

// WithOpener replaces sql.Open for table sources.
func WithOpener(open Opener) Option {
	return func(o *options) { o.open = open }
}

// Compiled is an executable plan. It is immutable and may be executed by
// many requests at once.
type Compiled struct {
	Name    string
	Root    execution.RecordSource
	Layout  *request.Layout
	Streams []request.StreamID
	Columns []string

	dbs []*sql.DB
}

// Close releases the database handles opened for table sources.
func (c *Compiled) Close() error {
	var result error
	for _, db := range c.dbs {
		if err := db.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	c.dbs = nil
	return result
}

// binding is a scan visible to column references.
type binding struct {
	alias  string
	stream request.StreamID
	desc   *tuple.TupleDescription
}

// scope is the list of scans a predicate may reference, innermost first via
// parent links for correlated subqueries.
type scope struct {
	bindings []binding
	parent   *scope
}

type compiler struct {
	c      *request.Compiler
	opts   options
	tables map[string]*TableSpec
	mem    map[string]*execution.Table
	descs  map[string]*tuple.TupleDescription
	dbs    map[string]*sql.DB
	opened []*sql.DB
}

// Compile builds the operator tree of doc and freezes its layout.
func Compile(doc *Document, opts ...Option) (*Compiled, error) {
	if doc == nil {
		return nil, invalidPlan("Compile", "plan document cannot be nil")
	}

	o := options{open: sql.Open}
	for _, opt := range opts {
		opt(&o)
	}

	pc := &compiler{
		c:      request.NewCompiler(),
		opts:   o,
		tables: map[string]*TableSpec{},
		mem:    map[string]*execution.Table{},
		descs:  map[string]*tuple.TupleDescription{},
		dbs:    map[string]*sql.DB{},
	}
	for name := range doc.Tables {
		spec := doc.Tables[name]
		pc.tables[name] = &spec
	}

	root, sc, err := pc.node(doc.Root, nil)
	if err != nil {
		pc.closeAll()
		return nil, errors.Wrapf(err, "compile plan %q", doc.Name)
	}

	compiled := &Compiled{
		Name:    doc.Name,
		Root:    root,
		Layout:  pc.c.Layout(),
		Streams: execution.UsedStreams(root),
		dbs:     pc.opened,
	}
	for _, b := range sc.bindings {
		for _, name := range b.desc.FieldNames {
			compiled.Columns = append(compiled.Columns, b.alias+"."+name)
		}
	}
	return compiled, nil
}

func (pc *compiler) closeAll() {
	for _, db := range pc.opened {
		_ = db.Close()
	}
}

func (pc *compiler) node(n Node, outer *scope) (execution.RecordSource, *scope, error) {
	set := 0
	for _, present := range []bool{n.Scan != nil, n.Filter != nil, n.First != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, nil, invalidPlan("node", "a plan node needs exactly one of scan, filter or first")
	}

	switch {
	case n.Scan != nil:
		return pc.scan(n.Scan, outer)
	case n.Filter != nil:
		return pc.filter(n.Filter, outer)
	default:
		child, sc, err := pc.node(n.First.Input, outer)
		if err != nil {
			return nil, nil, err
		}
		first, err := execution.NewFirstRows(pc.c, child, n.First.Limit)
		return first, sc, err
	}
}

func (pc *compiler) scan(n *ScanNode, outer *scope) (execution.RecordSource, *scope, error) {
	spec, ok := pc.tables[n.Table]
	if !ok {
		return nil, nil, invalidPlan("scan", "unknown table "+n.Table)
	}
	desc, err := pc.desc(n.Table, spec)
	if err != nil {
		return nil, nil, err
	}

	alias := n.Alias
	if alias == "" {
		alias = n.Table
	}

	var (
		src    execution.RecordSource
		stream request.StreamID
	)
	if spec.Source != nil {
		db, err := pc.db(n.Table, spec.Source)
		if err != nil {
			return nil, nil, err
		}
		s, err := scanner.NewSQLScan(pc.c, db, n.Table, desc, spec.Source.Query)
		if err != nil {
			return nil, nil, err
		}
		src, stream = s, s.Stream()
	} else {
		table, err := pc.table(n.Table, spec, desc)
		if err != nil {
			return nil, nil, err
		}
		s, err := execution.NewTableScan(pc.c, table)
		if err != nil {
			return nil, nil, err
		}
		src, stream = s, s.Stream()
	}

	sc := &scope{
		bindings: []binding{{alias: alias, stream: stream, desc: desc}},
		parent:   outer,
	}
	return src, sc, nil
}

func (pc *compiler) filter(n *FilterNode, outer *scope) (execution.RecordSource, *scope, error) {
	child, sc, err := pc.node(n.Input, outer)
	if err != nil {
		return nil, nil, err
	}

	boolean, err := pc.predicate(&n.Predicate, sc)
	if err != nil {
		return nil, nil, err
	}
	if n.Quantifier == nil {
		f, err := execution.NewFilteredStream(pc.c, child, boolean)
		return f, sc, err
	}

	q := execution.Quantifier{Negated: n.Quantifier.Negated}
	switch strings.ToLower(n.Quantifier.Kind) {
	case "any":
		q.Kind = execution.QuantifierAny
	case "all":
		q.Kind = execution.QuantifierAll
	default:
		return nil, nil, invalidPlan("filter", "quantifier kind must be any or all, got "+n.Quantifier.Kind)
	}
	if n.Quantifier.Select != nil {
		if q.Select, err = pc.predicate(n.Quantifier.Select, sc); err != nil {
			return nil, nil, err
		}
	}
	if n.Quantifier.Column != nil {
		if q.Column, err = pc.predicate(n.Quantifier.Column, sc); err != nil {
			return nil, nil, err
		}
	}

	f, err := execution.NewQuantifiedStream(pc.c, child, boolean, q)
	return f, sc, err
}

func (pc *compiler) desc(name string, spec *TableSpec) (*tuple.TupleDescription, error) {
	if desc, ok := pc.descs[name]; ok {
		return desc, nil
	}
	if len(spec.Columns) == 0 {
		return nil, invalidPlan("table", "table "+name+" declares no columns")
	}

	fieldTypes := make([]types.Type, len(spec.Columns))
	fieldNames := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		t, ok := types.ParseType(col.Type)
		if !ok {
			return nil, invalidPlan("table", "column "+name+"."+col.Name+" has unknown type "+col.Type)
		}
		fieldTypes[i] = t
		fieldNames[i] = col.Name
	}

	desc, err := tuple.NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		return nil, invalidPlan("table", err.Error())
	}
	pc.descs[name] = desc
	return desc, nil
}

// table materialises literal rows once; every scan of it shares the result.
func (pc *compiler) table(name string, spec *TableSpec, desc *tuple.TupleDescription) (*execution.Table, error) {
	if t, ok := pc.mem[name]; ok {
		return t, nil
	}

	rows := make([]*tuple.Tuple, 0, len(spec.Rows))
	for i, values := range spec.Rows {
		if len(values) != desc.NumFields() {
			return nil, dberror.Newf(dberror.ErrCategoryUser, dberror.CodeInvalidPlan,
				"table %s row %d has %d values, want %d", name, i, len(values), desc.NumFields()).
				WithOperation("table", "plan")
		}

		fields := make([]types.Field, len(values))
		for j, v := range values {
			t, _ := desc.TypeAtIndex(j)
			f, err := types.FromValue(t, v)
			if err != nil {
				return nil, dberror.Newf(dberror.ErrCategoryUser, dberror.CodeTypeMismatch,
					"table %s row %d column %s: %v", name, i, desc.FieldNames[j], err).
					WithOperation("table", "plan")
			}
			fields[j] = f
		}

		row, err := tuple.FromFields(desc, fields...)
		if err != nil {
			return nil, invalidPlan("table", err.Error())
		}
		rows = append(rows, row)
	}

	t, err := execution.NewTable(name, desc, rows)
	if err != nil {
		return nil, invalidPlan("table", err.Error())
	}
	pc.mem[name] = t
	return t, nil
}

// db opens one handle per table source and reuses it across scans.
func (pc *compiler) db(name string, src *SourceSpec) (*sql.DB, error) {
	if db, ok := pc.dbs[name]; ok {
		return db, nil
	}
	if src.Driver == "" || src.Query == "" {
		return nil, invalidPlan("source", "table "+name+" source needs a driver and a query")
	}

	db, err := pc.opts.open(src.Driver, src.DSN)
	if err != nil {
		return nil, dberror.Newf(dberror.ErrCategoryTransient, dberror.CodeSourceFailed, "open %s source for table %s", src.Driver, name).
			WithOperation("source", "plan").
			WithCause(err)
	}
	pc.dbs[name] = db
	pc.opened = append(pc.opened, db)
	return db, nil
}

// resolve finds a column in the innermost scope that has it. Unqualified
// names must be unambiguous within that scope.
func (sc *scope) resolve(name string) (binding, int, error) {
	alias, column, qualified := strings.Cut(name, ".")
	if !qualified {
		column, alias = alias, ""
	}

	for s := sc; s != nil; s = s.parent {
		var (
			found []binding
			index int
		)
		for _, b := range s.bindings {
			if qualified && !strings.EqualFold(b.alias, alias) {
				continue
			}
			if i, err := b.desc.FindFieldIndex(column); err == nil {
				found = append(found, b)
				index = i
			}
		}

		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], index, nil
		default:
			aliases := make([]string, len(found))
			for i, b := range found {
				aliases[i] = b.alias
			}
			sort.Strings(aliases)
			return binding{}, 0, dberror.Newf(dberror.ErrCategoryUser, dberror.CodeUnknownColumn,
				"column %q is ambiguous between %s", name, strings.Join(aliases, ", ")).
				WithOperation("resolve", "plan")
		}
	}

	return binding{}, 0, dberror.Newf(dberror.ErrCategoryUser, dberror.CodeUnknownColumn, "unknown column %q", name).
		WithOperation("resolve", "plan").
		WithHint("qualify the column with its scan alias, for example o.id")
}

func invalidPlan(op, msg string) *dberror.DBError {
	return dberror.New(dberror.ErrCategoryUser, dberror.CodeInvalidPlan, msg).WithOperation(op, "plan")
}
