// Package request holds the per-execution state of compiled plans.
//
// A plan is compiled once with a Compiler, which hands out typed impure
// slots (Allocate) and stream ids (NewStream). The frozen Layout is shared by
// every execution of the plan. Each execution gets its own Request, which
// owns one value per slot and one record buffer per stream, so operators
// never keep mutable state on themselves and a plan can run under many
// requests at once.
package request
