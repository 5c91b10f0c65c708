// Package musicbox manages media-backed catalogue content (artists, albums,
// songs and user avatars) whose binary resources live in a blob store while
// the records that reference them live in a repository.
//
// The Service sequences repository mutations with FileManager calls. Rows are
// committed first and files are written or removed afterwards; there is no
// distributed transaction, so every cleanup step is idempotent and a failed
// cleanup leaves orphaned bytes rather than dangling references. Repository
// updates write only the columns they name, and a file column swap returns
// the name it replaced, so concurrent writers never resurrect a stale value.
//
// # Visibility
//
// Every read goes through Resolve, which turns a Viewer into a Predicate over
// moderation status and ownership. Detail lookups outside the predicate fail
// with ErrNotFound so hidden content cannot be discovered.
package musicbox
