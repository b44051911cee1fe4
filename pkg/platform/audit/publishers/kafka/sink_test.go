package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "storefront/pkg/domain"
	audit "storefront/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	calls   int
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.calls++
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.records = append(f.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestSinkProducesKeyedJSON(t *testing.T) {
	producer := &fakeProducer{}
	sink := NewSink(producer, "storefront.audit")

	tenantID := id.TenantID(uuid.New())
	err := sink.Append(context.Background(), audit.Event{
		TenantID: tenantID,
		Action:   string(audit.EventOrderCreated),
		Category: audit.CategoryOperations,
		Subject:  "ORD-DEADBEEF",
	})
	require.NoError(t, err)

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "storefront.audit", rec.Topic)
	assert.Equal(t, tenantID.String(), string(rec.Key))

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, "ORD-DEADBEEF", decoded.Subject)
	assert.Equal(t, tenantID, decoded.TenantID)
}

func TestSinkOpensCircuitAfterFailures(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	sink := NewSink(producer, "audit", WithBreaker(2, time.Minute))

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sink.breaker.now = func() time.Time { return now }

	assert.Error(t, sink.Append(context.Background(), audit.Event{}))
	assert.Error(t, sink.Append(context.Background(), audit.Event{}))
	assert.ErrorIs(t, sink.Append(context.Background(), audit.Event{}), ErrCircuitOpen)
	assert.Equal(t, 2, producer.calls)

	// after cooldown one probe goes through and succeeds
	producer.err = nil
	now = now.Add(2 * time.Minute)
	require.NoError(t, sink.Append(context.Background(), audit.Event{}))
	require.NoError(t, sink.Append(context.Background(), audit.Event{}))
	assert.Equal(t, 4, producer.calls)
}
