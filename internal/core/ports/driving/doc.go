// Package driving defines the inbound ports of the sync core: the
// interfaces through which the CLI and the scheduler invoke it.
package driving
