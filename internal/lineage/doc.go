// Package lineage infers read/write table lineage from raw SQL text.
//
// The matcher is a surface-syntactic heuristic, not a SQL parser: a table
// name is whatever identifier follows FROM/JOIN (reads) or INSERT INTO,
// UPDATE, DELETE FROM (writes) in the normalized text. It has no notion of
// SQL grammar, so it will also match keywords inside string literals or
// comments, and on schema-qualified names it stops at the dot and captures
// the schema prefix. Aggregation is by bare captured name, so same-named
// tables in different schemas conflate. These are accepted limitations of the
// approach, traded for not having to maintain a grammar.
//
// The heuristic is fully contained behind ExtractReads and ExtractWrites;
// a tokenizer-based resolver could replace them without touching the data
// model or the graph built downstream.
package lineage
