// Package message defines the instruction value that flows through the
// ingestion pipeline.
//
// This package contains type definitions only. Parser, validator, queue and
// receiver all import message; message imports nothing internal.
//
// Key design constraints:
//   - Instruction is a value type; equality is field equality
//   - The type set {A, B, C, D} is closed and maps totally onto three tiers
//   - Lower priority rank is served first
//   - Canonical JSON is the only serialization used for stored payloads
package message
