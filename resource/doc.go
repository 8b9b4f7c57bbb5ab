// Package resource limits the shared resources a running engine may consume:
// bytes held by result and block caches, concurrent batch-prediction workers
// and artifact download throughput.
//
// A nil *Controller is valid and imposes no limits.
package resource
