package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// spawnWorkerPool spawns N processing goroutines based on the concurrency
// setting.
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop processes deliveries until stopped. A message failure is always
// confined to its own delivery: the loop ACKs or NACKs and moves on, so one
// bad message never blocks its siblings.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case delivery, ok := <-w.jobsChan:
			if !ok {
				w.logger.Info("Worker goroutine stopping - jobsChan closed",
					slog.String("worker_name", workerName),
				)
				return
			}

			err := w.processDelivery(ctx, delivery.Body)

			// A non-nil error means the failure was recorded but must still
			// be surfaced to the delivery infrastructure: NACK without
			// requeue so the broker's own dead-letter policy applies.
			// Everything else - success, scheduled retry, terminal failure -
			// is fully handled here and the delivery is ACKed.
			if err != nil {
				w.logger.Error("Message processing failed",
					slog.String("worker_name", workerName),
					slog.String("error", err.Error()),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("worker_name", workerName),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := delivery.Ack(false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("worker_name", workerName),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}
