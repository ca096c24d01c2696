package crud

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UpdateDescriptor names one record of a bulk update and the fields to set.
type UpdateDescriptor struct {
	ID         string         `json:"id"`
	UpdateData map[string]any `json:"updateData"`
}

// BulkUpdateReport lists the outcome of every descriptor in request order.
type BulkUpdateReport[T any] struct {
	Updated []T      `json:"updated"`
	Failed  []string `json:"failed"`
	// Reasons maps a failed identifier to its error message.
	Reasons map[string]string `json:"reasons"`
}

// BulkDeleteReport partitions the requested identifiers by outcome.
type BulkDeleteReport struct {
	DeletedCount int      `json:"deletedCount"`
	DeletedIDs   []string `json:"deletedIds"`
	InvalidIDs   []string `json:"invalidIds"`
	NotFoundIDs  []string `json:"notFoundIds"`
	FailedIDs    []string `json:"failedIds"`
}

type itemResult[T any] struct {
	record T
	err    error
}

// BulkUpdate applies each descriptor independently. One item failing never
// rolls back or blocks the others.
func (e *Engine[T]) BulkUpdate(ctx context.Context, items []UpdateDescriptor) (BulkUpdateReport[T], error) {
	report := BulkUpdateReport[T]{
		Updated: []T{},
		Failed:  []string{},
		Reasons: map[string]string{},
	}
	if err := e.checkBatch(len(items)); err != nil {
		return report, err
	}

	results := make([]itemResult[T], len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.BulkConcurrency)
	for i, item := range items {
		g.Go(func() error {
			record, err := e.update(gctx, item.ID, item.UpdateData)
			results[i] = itemResult[T]{record: record, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, items[i].ID)
			report.Reasons[items[i].ID] = res.err.Error()
			continue
		}
		report.Updated = append(report.Updated, res.record)
	}

	if len(report.Updated) > 0 {
		e.lister.Invalidate(ctx)
	}

	e.logger.Info("bulk update finished",
		zap.Int("requested", len(items)),
		zap.Int("updated", len(report.Updated)),
		zap.Int("failed", len(report.Failed)))

	return report, nil
}

// BulkDelete removes every resolvable identifier. Malformed identifiers are
// rejected without touching the store.
func (e *Engine[T]) BulkDelete(ctx context.Context, ids []string) (BulkDeleteReport, error) {
	report := BulkDeleteReport{
		DeletedIDs:  []string{},
		InvalidIDs:  []string{},
		NotFoundIDs: []string{},
		FailedIDs:   []string{},
	}
	if err := e.checkBatch(len(ids)); err != nil {
		return report, err
	}

	results := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.BulkConcurrency)
	for i, raw := range ids {
		id, err := e.parseID(raw)
		if err != nil {
			results[i] = err
			continue
		}
		g.Go(func() error {
			results[i] = e.delete(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range results {
		switch {
		case err == nil:
			report.DeletedIDs = append(report.DeletedIDs, ids[i])
		case errors.Is(err, ErrInvalidID):
			report.InvalidIDs = append(report.InvalidIDs, ids[i])
		case errors.Is(err, ErrNotFound):
			report.NotFoundIDs = append(report.NotFoundIDs, ids[i])
		default:
			e.logger.Warn("bulk delete item failed", zap.String("id", ids[i]), zap.Error(err))
			report.FailedIDs = append(report.FailedIDs, ids[i])
		}
	}
	report.DeletedCount = len(report.DeletedIDs)

	if report.DeletedCount > 0 {
		e.lister.Invalidate(ctx)
	}

	e.logger.Info("bulk delete finished",
		zap.Int("requested", len(ids)),
		zap.Int("deleted", report.DeletedCount),
		zap.Int("invalid", len(report.InvalidIDs)),
		zap.Int("not_found", len(report.NotFoundIDs)))

	return report, nil
}

func (e *Engine[T]) checkBatch(n int) error {
	if n == 0 {
		return ErrEmptyBatch
	}
	if n > e.opts.MaxBatchSize {
		return fmt.Errorf("%d items, limit %d: %w", n, e.opts.MaxBatchSize, ErrBatchTooLarge)
	}
	return nil
}
