// Package harness runs ingestion conformance scenarios.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: priority_order
//	description: "Types drain in tier order"
//	now: "2024-01-01T00:00:00Z"
//	lines:
//	  - "InstructionMessage C MZ89 1 1 2015-03-05T10:04:56.012Z\n"
//	  - "InstructionMessage A MZ89 1 1 2015-03-05T10:04:56.012Z\n"
//	expect:
//	  accepted: 2
//	  rejected: 0
//	  order: [A, C]
//	  rejections: []
//
// Lines are received verbatim. Unknown YAML fields are rejected, then the
// decoded document is unified with the embedded CUE schema (schema.cue).
//
// # Deterministic Testing
//
// Every run uses a clock frozen at now, receipt IDs derived from the
// scenario name, UTC timestamp parsing and a fresh in-memory journal. The
// result snapshot is canonical JSON, which makes golden files byte-stable.
package harness
