package domain

import "context"

// ReviewSource is the external review-scraping collaborator. A failed fetch
// is treated by the ingestion stage as zero comments for that property.
type ReviewSource interface {
	FetchReviews(ctx context.Context, p PropertyRecord) ([]ReviewComment, error)
}

// Classifier is the external text-classification collaborator. Its result is
// validated against the Analysis shape before acceptance; an invalid shape is
// treated identically to an error.
type Classifier interface {
	Classify(ctx context.Context, p PropertyRecord, positive, negative []string) (*ClassifierResult, error)
}

// Transport delivers one formatted message to one recipient.
type Transport interface {
	Send(ctx context.Context, subject, body, recipient string) error
}

// Cache is a TTL'd key/value store used to avoid re-fetching review batches.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
