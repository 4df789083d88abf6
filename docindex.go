// Package docindex provides a semantic search index over external documentation.
// It crawls documentation sites, extracts and normalizes their content, splits it
// into overlapping passages, stores those passages in a vector-searchable index
// and answers similarity queries against that index.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, chroma/).
package docindex
