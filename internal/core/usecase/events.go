package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

var errEmptyBatch = errors.New("batch contains no files")

func errTooManyFiles(got, limit int) error {
	return fmt.Errorf("%d files exceeds the per-batch limit of %d", got, limit)
}

func errUnknownJob(id string) error {
	return fmt.Errorf("no rescan job with id %q", id)
}

// NoopPublisher satisfies the event publisher port when no broker is
// configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishFileClassified(context.Context, domain.FileRecord) error { return nil }
func (NoopPublisher) PublishCategoryCreated(context.Context, string) error           { return nil }
func (NoopPublisher) PublishRescanRequested(context.Context, string) error           { return nil }
