package risk

import "time"

// Input carries every signal the scorer evaluates. Callers resolve
// velocity counts and customer history before scoring; the scorer itself
// never touches storage.
type Input struct {
	Amount        float64
	Currency      string
	PaymentMethod string

	// OccurredAt is passed explicitly so scoring stays deterministic.
	OccurredAt time.Time

	Velocity Velocity
	Geo      GeoSignals
	Customer CustomerHistory
}

// Velocity holds sliding-window transaction counts.
type Velocity struct {
	CustomerTxnsLastHour int
	CustomerTxnsLastDay  int
	MerchantTxnsLastHour int
}

// GeoSignals holds geography inputs. IPCountry is the country the calling
// layer derived for the client address (a CDN or LB header); empty means
// unknown and contributes nothing.
type GeoSignals struct {
	CustomerCountry string
	IPCountry       string
	IPAddress       string
}

// CustomerHistory summarizes a customer's prior transactions with this
// tenant. A zero PreviousTransactions marks a new customer.
type CustomerHistory struct {
	PreviousTransactions int
	FailureRate          float64
	ChargebackCount      int
}

// Assessment is the score/level/recommendation triple attached to a
// transaction, with the named factors that produced it.
type Assessment struct {
	Score          int      `json:"score"`
	Level          string   `json:"level"`
	Recommendation string   `json:"recommendation"`
	Factors        []string `json:"factors"`
}
