package domain

// PropertyRecord is one rental listing in the portfolio. Records are built at
// configuration load and never mutated afterwards.
type PropertyRecord struct {
	ID          string
	DisplayName string
	BasePrice   float64
	ListingURL  string // opaque handle passed to the review source
}

type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// ReviewComment is a single guest remark as produced by the ingestion stage.
// Order of comments within one property is preserved as received.
type ReviewComment struct {
	PropertyID   string
	Polarity     Polarity
	Text         string
	ObservedDate string // YYYY-MM-DD, empty when the source omits it
}
