/*
Package risk scores transactions at creation time.

Scoring is a pure function: the caller gathers every signal up front
(amount, velocity counts, geography, customer history, the transaction
time) and Score returns the same assessment for the same input, with no
I/O and no clock reads. That keeps the scorer callable in isolation from
tests and from offline tooling.

Six factor categories are always evaluated: amount, velocity, payment
method, geography, customer history and time-of-day. A category whose
inputs are absent contributes zero; it is never skipped. Each triggered
factor adds a fixed weight and a named tag to the assessment, so an
operator can see exactly why a transaction scored the way it did:

	assessment := risk.Score(risk.Input{
	    Amount:        50000,
	    PaymentMethod: models.PaymentMethodCreditCard,
	    OccurredAt:    occurredAt,
	})
	// assessment.Score, assessment.Level, assessment.Recommendation,
	// assessment.Factors

Scores are integers from 0 upward, uncapped. Levels partition the scale:
low (0-20), medium (21-50), high (51+). The recommendation mirrors the
level: approve, review, decline. The transaction lifecycle persists a
declined payment as failed rather than dropping it.
*/
package risk
