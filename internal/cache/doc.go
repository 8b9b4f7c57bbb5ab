// Package cache provides byte-bounded LRU caches for immutable values.
//
// Two kinds of entries share one key space: raw blob blocks read from a
// remote bundle store, and encoded analytics results computed from a
// loaded bundle. Analytics entries are keyed by manifest version so a
// reload never serves results of a previous bundle.
//
// Both caches report their memory to a resource.Controller, if one is given.
package cache
