package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"ragdocs/internal/model"
	"ragdocs/internal/vectorindex"
)

// VectorReconcileWorker retries vector deletions that failed during
// ingestion compensation, so no tenant is left with orphaned chunks.
type VectorReconcileWorker struct {
	conn      *amqp.Connection
	index     vectorindex.Index
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewVectorReconcileWorker(conn *amqp.Connection, index vectorindex.Index, queueName string) *VectorReconcileWorker {
	return &VectorReconcileWorker{
		conn:      conn,
		index:     index,
		queueName: queueName,
	}
}

func (w *VectorReconcileWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare reconcile queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume reconcile queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var task model.ReconcileTask
				if err := json.Unmarshal(d.Body, &task); err != nil {
					log.Printf("worker decode reconcile task failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				deleted, err := w.index.DeleteByDocument(workerCtx, task.DocumentID, task.UserID)
				if err != nil {
					log.Printf("worker reconcile document %s for user %d failed: %v",
						task.DocumentID, task.UserID, err)
					_ = d.Nack(false, true)
					continue
				}

				if deleted > 0 {
					log.Printf("worker reconciled %d orphaned chunks for document %s", deleted, task.DocumentID)
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *VectorReconcileWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
