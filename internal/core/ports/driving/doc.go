// Package driving provides interfaces for the application's entry points
// (primary/inbound ports). The CLI and any host shell consume these.
package driving
