package webhook

import (
	"context"
	"time"
)

// ArchivedPayload is a raw accepted webhook delivery
type ArchivedPayload struct {
	Platform   string
	Topic      string
	DeliveryID string
	ReceivedAt time.Time
	Headers    map[string]string
	Body       []byte
}

// PayloadArchive stores accepted webhook payloads. Archiving is best-effort:
// ingestion logs failures and carries on.
type PayloadArchive interface {
	Archive(ctx context.Context, payload ArchivedPayload) error
}

// NopArchive discards payloads. It is used when storage is disabled.
type NopArchive struct{}

// Archive implements PayloadArchive
func (NopArchive) Archive(context.Context, ArchivedPayload) error { return nil }
