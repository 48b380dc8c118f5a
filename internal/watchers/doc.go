// Package watchers provides implementations of the SourceWatcher
// interface. Each watcher enumerates documents from one source kind and
// resolves descriptors back to raw bytes.
package watchers
