// Package transaction processes payments end to end. Create validates
// the request, gates it through risk scoring and persists the terminal
// row in one storage transaction; refunds, cancellations and
// chargebacks derive child rows from the parent under a row lock.
// Velocity counters live in Redis with scoped SQL counts as fallback.
package transaction
