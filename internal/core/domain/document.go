package domain

import "time"

// Document is a file or folder in a hierarchical document store.
type Document struct {
	Provenance

	// ID is the opaque source id and the natural key.
	ID string

	// ParentID references another Document. Nil when the parent is unknown locally.
	ParentID *string

	// SourceParentID is the raw parent id the source reported,
	// kept even when ParentID was dropped.
	SourceParentID *string

	Title    string
	MimeType string
	WebURL   string

	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Key returns the natural key of the document.
func (d *Document) Key() string {
	return d.ID
}

// ParentKey returns the reported parent id, or "" for a root.
func (d *Document) ParentKey() string {
	if d.SourceParentID == nil {
		return ""
	}
	return *d.SourceParentID
}

// IsFolder reports whether the document is a Drive folder.
func (d *Document) IsFolder() bool {
	return d.MimeType == "application/vnd.google-apps.folder"
}
