// Package action turns workflow inputs into a validated request, runs the
// requested check, and reports its verdict the way CI runners expect.
package action
