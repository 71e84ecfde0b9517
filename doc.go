// Package shellz implements the evaluation and streaming core of a
// structured shell: a strongly typed Value model, two-phase compilation of
// Definitions into Values against a Scope tree, concurrent pipeline
// machinery that wires command stages together with typed row channels,
// and a Scope serialization protocol that preserves sharing and cycles.
//
// # Scope
//
// shellz is deliberately narrow. It does not parse surface syntax, render
// output, ship a library of builtin commands, or manage child processes —
// those are external collaborators that attach through three small
// interfaces: Command, Printer, and Env. What shellz owns is the part where
// dynamic typing, concurrency, and graph-preserving persistence meet:
//
//   - Value: the tagged datum that flows through pipelines.
//   - Scope: a nested, reference-shared symbol table.
//   - Channels and Stream: typed, single-consumer row delivery with
//     backpressure.
//   - Definition and compilation: turning unevaluated expression trees into
//     Values, spawning pipelines along the way.
//   - Job: the concurrent pipeline executor.
//   - The scope serializer: an identity-indexed element table that
//     survives a round trip to disk and back, cycles included.
//
// # Observability
//
// shellz has no classic logger. Scope mutation, stream lifecycle, and
// pipeline-stage transitions are reported as structured signals through
// github.com/zoobzio/capitan. Counters for rows processed and stages
// spawned are published to a github.com/zoobzio/metricz registry, and
// github.com/zoobzio/hookz exposes scope declare/redeclare events (through
// Scope.Hooks) to embedders that would rather subscribe than consume
// signals; stream and stage events have no hook.
package shellz
