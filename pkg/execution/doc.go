// Package execution is the record-source layer of the query engine.
//
// The engine uses the iterator (volcano) model: every operator implements
// RecordSource with Open / GetRecord / Close. Operators are composed into a
// tree; calling GetRecord on the root pulls one row at a time through the
// whole pipeline, loading it into the request's stream record buffers.
//
// Operator trees are compiled once and are immutable afterwards. All mutable
// state (open flags, scan positions, counters) lives in impure slots of the
// request.Request passed to every call, so one tree can be executed by any
// number of requests concurrently.
//
// # Operators
//
//   - [TableScan]         leaf over an in-memory relation.
//   - [FilteredStream]    boolean filter, including ANY / ALL quantified
//     predicates under three-valued logic.
//   - [FirstRows]         stops after a fixed number of rows.
//   - [SubqueryPredicate] an expr.Boolean that evaluates a record source.
//
// SQL-backed leaves live in the scanner sub-package.
package execution
