package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/lac-hong-legacy/ido_api/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAnalyticsDropsWhenBufferFull(t *testing.T) {
	svc := NewAnalyticsService(nil, nil, "", "analytics", time.Hour, 1)

	before := testutil.ToFloat64(analyticsEventsDroppedTotal)

	// no worker is running, so only the first event fits
	svc.WriteDataPoint(model.AnalyticsEvent{Name: "request"})
	svc.WriteDataPoint(model.AnalyticsEvent{Name: "request"})
	svc.WriteDataPoint(model.AnalyticsEvent{Name: "request"})

	assert.Equal(t, before+2, testutil.ToFloat64(analyticsEventsDroppedTotal))
	svc.Shutdown()
}

func TestAnalyticsWriteAfterShutdownIsIgnored(t *testing.T) {
	svc := NewAnalyticsService(nil, nil, "", "analytics", time.Hour, 4)
	svc.Run()
	svc.Shutdown()

	before := testutil.ToFloat64(analyticsEventsDroppedTotal)
	assert.NotPanics(t, func() {
		svc.WriteDataPoint(model.AnalyticsEvent{Name: "request"})
	})
	assert.Equal(t, before, testutil.ToFloat64(analyticsEventsDroppedTotal))

	// second shutdown is a no-op
	assert.NotPanics(t, svc.Shutdown)
}

func TestAnalyticsPublishesToKafka(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, nil)
	producer.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		if !strings.Contains(string(val), `"name":"ido_investment"`) {
			return fmt.Errorf("unexpected payload %s", val)
		}
		return nil
	})

	svc := NewAnalyticsService(nil, producer, "ido-analytics", "analytics", time.Hour, 8)
	svc.Run()

	svc.WriteDataPoint(model.AnalyticsEvent{
		Name:    "ido_investment",
		Blobs:   []string{"pool-1", "user-1", "USDT"},
		Doubles: []float64{1700000000, 500, 1000},
		Indexes: []string{"user-1", "pool-1"},
	})

	svc.Shutdown()
}
