// Package engine executes named pipelines of document transformations.
//
// The engine package decomposes every registered pipeline into four ordered
// phases (input, process, transform, output) and wires them into a directed
// acyclic graph spanning all pipelines. Independent phases run concurrently
// while dependency edges, including the transform barrier that synchronises
// every non-isolated transform phase behind every non-isolated process phase,
// guarantee that cross-pipeline reads through the shared document store are
// always consistent.
//
// Within a phase, modules run sequentially: each module receives the document
// array produced by its predecessor and returns the array handed to its
// successor. A failing module aborts its phase, downstream phases are skipped,
// and unrelated branches of the graph keep making progress.
//
// The engine does not interpret documents. They are opaque immutable records
// created through a document factory and carried by reference between modules.
package engine
