// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). Services depend on these interfaces, never
// on concrete adapters.
package driven
