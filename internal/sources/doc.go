// Package sources provides the PostgreSQL-backed implementations of the export
// collaborators: paginated query sources, value resolvers and the auxiliary
// table reader.
//
// Architecture:
//   - QuerySource: wraps a configured SELECT so it can be read page by page,
//     optionally restricted to an id allowlist
//   - QueryResolver: maps a single value through a lookup query (e.g. media id
//     to URL)
//   - TableReader: lists the columns and reads the content of side tables
//
// All values are rendered as strings the way they are written to the export
// files: NULL becomes the empty string, timestamps are RFC 3339, UUIDs use
// their canonical form and arrays are joined with "|".
package sources
