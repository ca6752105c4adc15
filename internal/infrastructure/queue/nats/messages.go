package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

type indexEvent struct {
	Collection string    `json:"collection"`
	ChangedAt  time.Time `json:"changed_at"`
}

func encodeIngestJob(job domain.IngestJob) ([]byte, error) {
	if strings.TrimSpace(job.Collection) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode ingest job", errors.New("collection is required"))
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal ingest job: %w", err)
	}
	return data, nil
}

func decodeIngestJob(data []byte) (domain.IngestJob, error) {
	var job domain.IngestJob
	if err := json.Unmarshal(data, &job); err != nil {
		return domain.IngestJob{}, domain.WrapError(domain.ErrInvalidInput, "decode ingest job", err)
	}
	if strings.TrimSpace(job.Collection) == "" {
		return domain.IngestJob{}, domain.WrapError(domain.ErrInvalidInput, "decode ingest job", errors.New("collection is required"))
	}
	return job, nil
}

func encodeIndexEvent(event indexEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal index event: %w", err)
	}
	return data, nil
}

func decodeIndexEvent(data []byte) (indexEvent, error) {
	var event indexEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return indexEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode index event", err)
	}
	if strings.TrimSpace(event.Collection) == "" {
		return indexEvent{}, domain.WrapError(domain.ErrInvalidInput, "decode index event", errors.New("collection is required"))
	}
	return event, nil
}
