package application

import (
	"context"

	"github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

// EventMetadata completes an event's metadata from the request context.
// Values already set on the event win.
func EventMetadata(ctx context.Context, metadata domain.EventMetadata) domain.EventMetadata {
	if metadata.CorrelationID == "" {
		metadata.CorrelationID = observability.CorrelationIDFromContext(ctx)
	}
	if metadata.FamilyID == "" {
		metadata.FamilyID = observability.FamilyIDFromContext(ctx)
	}
	return metadata
}
