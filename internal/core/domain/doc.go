// Package domain contains the core data model for document synchronisation:
// descriptors produced by source watchers, extracted content, remote store
// records, upload jobs and their state machine, and the error taxonomy
// shared by all components.
package domain
