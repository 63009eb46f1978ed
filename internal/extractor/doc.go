// Package extractor converts raw screenplay text into ordered scene records.
//
// Extraction is a pure function: identical input always yields identical
// output and no shared state is touched. Scene boundaries come from slugline
// headings (INT./EXT. plus location and time-of-day); the blocks between
// headings are classified structurally into character cues, parentheticals,
// dialogue, and action rather than by keyword dictionaries alone, so the
// extractor tolerates formatting variance across sources.
//
// Every field is always detected internally. Callers narrow the payload to a
// requested column set with Project at the output boundary, which keeps the
// detection logic free of per-column branching.
package extractor
