// Package ports defines the boundary interfaces between the governance core
// and its adapters: persistence, knowledge storage, downstream analysis
// dispatch, distributed locking, and the external sentiment/price
// collaborators. The core depends only on these interfaces, never on
// concrete adapters.
package ports
