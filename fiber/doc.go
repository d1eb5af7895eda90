// Package fiber is a cooperative concurrency kernel: lightweight fibers
// scheduled over a small worker pool, with scope-based lifetimes,
// supervision, and predictable interruption. Fibers are explicit
// continuation chains; a freshly forked fiber never runs before the forking
// fiber's current synchronous segment suspends, yields, or completes.
package fiber
