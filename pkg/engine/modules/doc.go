// Package modules provides small building-block modules: a function adapter,
// document creation through the engine factory, cross-pipeline merging from
// the shared document store and predicate filtering.
package modules
