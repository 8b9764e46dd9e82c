package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"
	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/lac-hong-legacy/ido_api/shared"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const ANALYTICS_SVC = "analytics_svc"

// EventSink accepts analytics data points. Writes never block and never fail the caller.
type EventSink interface {
	WriteDataPoint(ev model.AnalyticsEvent)
}

type pipelineStore interface {
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// AnalyticsService buffers events and records them as Redis hash counters,
// optionally mirroring every event to a Kafka topic.
type AnalyticsService struct {
	appContext.DefaultService

	store    pipelineStore
	producer sarama.AsyncProducer
	topic    string
	prefix   string
	ttl      time.Duration

	events chan model.AnalyticsEvent
	mu     sync.RWMutex
	closed bool

	workerWg sync.WaitGroup
	errorsWg sync.WaitGroup
}

func (svc AnalyticsService) Id() string {
	return ANALYTICS_SVC
}

// NewAnalyticsService builds a sink without the service container. Either store or producer may be nil.
func NewAnalyticsService(store pipelineStore, producer sarama.AsyncProducer, topic, prefix string, ttl time.Duration, buffer int) *AnalyticsService {
	if buffer <= 0 {
		buffer = 1
	}
	return &AnalyticsService{
		store:    store,
		producer: producer,
		topic:    topic,
		prefix:   strings.Trim(prefix, ":"),
		ttl:      ttl,
		events:   make(chan model.AnalyticsEvent, buffer),
	}
}

func (svc *AnalyticsService) Configure(ctx *appContext.Context) error {
	cfg := ctx.Service(CONFIG_SVC).(*ConfigService).Config()

	svc.prefix = strings.Trim(cfg.AnalyticsPrefix, ":")
	svc.ttl = cfg.AnalyticsTTL
	svc.topic = cfg.KafkaTopic
	svc.events = make(chan model.AnalyticsEvent, max(cfg.AnalyticsBuffer, 1))

	if len(cfg.KafkaBrokers) > 0 {
		kcfg := sarama.NewConfig()
		kcfg.Producer.Return.Errors = true
		kcfg.Producer.RequiredAcks = sarama.WaitForLocal

		producer, err := sarama.NewAsyncProducer(cfg.KafkaBrokers, kcfg)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		svc.producer = producer
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *AnalyticsService) Start() error {
	svc.store = svc.Service(REDIS_SVC).(*RedisService)
	svc.Run()

	log.Info().Bool("kafka", svc.producer != nil).Msg("Analytics sink started")
	return nil
}

// Run starts the background worker.
func (svc *AnalyticsService) Run() {
	if svc.producer != nil {
		svc.errorsWg.Add(1)
		go func() {
			defer svc.errorsWg.Done()
			for perr := range svc.producer.Errors() {
				log.Warn().Err(perr.Err).Str("topic", perr.Msg.Topic).Msg("Analytics event not delivered to kafka")
			}
		}()
	}

	svc.workerWg.Add(1)
	go svc.worker()
}

func (svc *AnalyticsService) Shutdown() {
	svc.mu.Lock()
	if svc.closed {
		svc.mu.Unlock()
		return
	}
	svc.closed = true
	close(svc.events)
	svc.mu.Unlock()

	svc.workerWg.Wait()

	if svc.producer != nil {
		// the producer closes Errors() once flushed, which ends the reader
		svc.producer.AsyncClose()
		svc.errorsWg.Wait()
	}
}

// WriteDataPoint enqueues ev. When the buffer is full the event is dropped and counted.
func (svc *AnalyticsService) WriteDataPoint(ev model.AnalyticsEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	svc.mu.RLock()
	defer svc.mu.RUnlock()

	if svc.closed {
		return
	}

	select {
	case svc.events <- ev:
	default:
		analyticsEventsDroppedTotal.Inc()
	}
}

func (svc *AnalyticsService) worker() {
	defer svc.workerWg.Done()

	for ev := range svc.events {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := svc.record(ctx, ev); err != nil {
			log.Warn().Err(err).Str("event", ev.Name).Msg("Failed to record analytics event")
		}
		cancel()

		svc.publish(ev)
	}
}

func (svc *AnalyticsService) record(ctx context.Context, ev model.AnalyticsEvent) error {
	if svc.store == nil {
		return nil
	}

	return svc.store.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, svc.prefix+":total", ev.Name, 1)

		bucketKey := fmt.Sprintf("%s:minute:%s", svc.prefix, ev.At.UTC().Format("200601021504"))
		pipe.HIncrBy(ctx, bucketKey, ev.Name, 1)
		if svc.ttl > 0 {
			pipe.Expire(ctx, bucketKey, svc.ttl)
		}

		if len(ev.Indexes) > 0 && ev.Indexes[0] != "" {
			indexKey := svc.prefix + ":index:" + ev.Indexes[0]
			pipe.HIncrBy(ctx, indexKey, ev.Name, 1)
			if svc.ttl > 0 {
				pipe.Expire(ctx, indexKey, svc.ttl)
			}
		}
		return nil
	})
}

func (svc *AnalyticsService) publish(ev model.AnalyticsEvent) {
	if svc.producer == nil {
		return
	}

	payload, err := shared.JSONAPI.Marshal(ev)
	if err != nil {
		log.Warn().Err(err).Str("event", ev.Name).Msg("Failed to encode analytics event")
		return
	}

	svc.producer.Input() <- &sarama.ProducerMessage{
		Topic: svc.topic,
		Key:   sarama.StringEncoder(ev.Name),
		Value: sarama.ByteEncoder(payload),
	}
}

// Totals returns the all-time event counters keyed by event name.
func (svc *AnalyticsService) Totals(ctx context.Context) (map[string]string, error) {
	if svc.store == nil {
		return map[string]string{}, nil
	}
	return svc.store.HGetAll(ctx, svc.prefix+":total")
}

// discardSink is used where no analytics backend is wired.
type discardSink struct{}

func (discardSink) WriteDataPoint(model.AnalyticsEvent) {}
