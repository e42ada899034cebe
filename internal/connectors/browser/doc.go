// Package browser implements the browser_history source.
//
// A history database is locked by a running browser, so the source copies the
// snapshot to a temporary file and reads the copy through modernc.org/sqlite
// in read-only mode. Chrome (WebKit epoch) and Safari (Cocoa epoch) schemas
// are supported. Visits are collapsed into episodes before they are stored,
// scoped by the hostname of the machine the snapshot came from.
package browser
