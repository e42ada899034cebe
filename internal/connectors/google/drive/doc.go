// Package drive implements the google_drive source.
//
// Files are listed with files.list ordered by modifiedTime descending,
// excluding trashed files and optionally restricted to one folder. A sync run
// asks only for files modified after the latest stored modified_at.
//
// Drive folders are documents too. Each run's listing is ordered so that a
// folder is written before anything inside it; a parent that is neither in
// the listing nor stored is dropped from parent_id while source_parent_id
// keeps the id Drive reported.
package drive
