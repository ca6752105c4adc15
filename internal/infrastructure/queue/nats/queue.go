package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
	"github.com/kirillkom/hybrid-retrieval/internal/infrastructure/resilience"
)

const workerQueueGroup = "workers"

// Queue carries ingest jobs to workers and broadcasts index-changed events
// to every API replica.
type Queue struct {
	conn          *nats.Conn
	ingestSubject string
	indexSubject  string
	executor      *resilience.Executor
}

type Options struct {
	Name                 string
	IngestSubject        string
	IndexSubject         string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	// NoEcho suppresses delivery of this connection's own publications, so an
	// API replica does not reload a collection it just indexed itself.
	NoEcho             bool
	ResilienceExecutor *resilience.Executor
}

func New(url string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	name := options.Name
	if name == "" {
		name = "hybrid-retrieval"
	}

	natsOpts := []nats.Option{
		nats.Name(name),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", errString(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if options.NoEcho {
		natsOpts = append(natsOpts, nats.NoEcho())
	}

	conn, err := nats.Connect(url, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:          conn,
		ingestSubject: options.IngestSubject,
		indexSubject:  options.IndexSubject,
		executor:      options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishIngestJob(ctx context.Context, job domain.IngestJob) error {
	data, err := encodeIngestJob(job)
	if err != nil {
		return err
	}
	return q.publish(ctx, "nats.publish_ingest", q.ingestSubject, data)
}

func (q *Queue) PublishCollectionChanged(ctx context.Context, collection string) error {
	data, err := encodeIndexEvent(indexEvent{Collection: collection, ChangedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return q.publish(ctx, "nats.publish_index_changed", q.indexSubject, data)
}

// SubscribeIngestJobs consumes jobs in the shared worker queue group until
// ctx is cancelled, then drains the subscription.
func (q *Queue) SubscribeIngestJobs(ctx context.Context, handler func(context.Context, domain.IngestJob) error) error {
	return q.subscribe(ctx, q.ingestSubject, workerQueueGroup, func(msgCtx context.Context, data []byte) error {
		job, err := decodeIngestJob(data)
		if err != nil {
			return err
		}
		return handler(msgCtx, job)
	})
}

// SubscribeCollectionChanged delivers every index event to this process.
func (q *Queue) SubscribeCollectionChanged(ctx context.Context, handler func(context.Context, string) error) error {
	return q.subscribe(ctx, q.indexSubject, "", func(msgCtx context.Context, data []byte) error {
		event, err := decodeIndexEvent(data)
		if err != nil {
			return err
		}
		return handler(msgCtx, event.Collection)
	})
}

func (q *Queue) publish(ctx context.Context, operation, subject string, data []byte) error {
	err := q.executor.Execute(ctx, operation, func(_ context.Context) error {
		if err := q.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}, classifyNATSError)
	if err != nil {
		return wrapPublishError(operation, err)
	}
	return nil
}

func (q *Queue) subscribe(ctx context.Context, subject, group string, handle func(context.Context, []byte) error) error {
	callback := func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handle(handlerCtx, msg.Data); err != nil {
			slog.Error("nats_handler_failed", "subject", msg.Subject, "error", err.Error())
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if group != "" {
		sub, err = q.conn.QueueSubscribe(subject, group, callback)
	} else {
		sub, err = q.conn.Subscribe(subject, callback)
	}
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
