package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConsumer delivers its messages once, then blocks until cancelled.
type scriptedConsumer struct {
	messages []*amqp.OCRResultMessage
	failures atomic.Int32 // fail this many subscriptions first
	calls    atomic.Int32
}

func (c *scriptedConsumer) ConsumeOCRResults(ctx context.Context, handler func(context.Context, *amqp.OCRResultMessage) error) error {
	c.calls.Add(1)
	if c.failures.Load() > 0 {
		c.failures.Add(-1)
		return errors.New("connection refused")
	}
	for _, m := range c.messages {
		_ = handler(ctx, m)
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestOCRProcessorAppliesResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.CreateProject(ctx, "Travel")
	require.NoError(t, err)
	ref, err := f.svc.StoreReceiptImage(ctx, encodeJPEG([]byte{1}))
	require.NoError(t, err)
	e, err := f.svc.CreateExpense(ctx, core.NewExpense{ProjectID: p.ID, ReceiptImagePath: ref})
	require.NoError(t, err)

	consumer := &scriptedConsumer{messages: []*amqp.OCRResultMessage{{ExpenseID: e.ID, StoreName: "Kiosk"}}}
	consumer.failures.Store(1)

	proc := NewOCRProcessor(consumer, f.svc, OCRProcessorConfig{RetryInterval: 10 * time.Millisecond})
	require.NoError(t, proc.Start(ctx))
	assert.True(t, proc.IsRunning())
	assert.Error(t, proc.Start(ctx), "second start")

	assert.Eventually(t, func() bool {
		got, err := f.svc.GetExpense(ctx, e.ID)
		return err == nil && got.StoreName == "Kiosk"
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, consumer.calls.Load(), int32(2))

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, proc.Stop(stopCtx))
	assert.False(t, proc.IsRunning())
	require.NoError(t, proc.Stop(stopCtx))
}

func TestOCRProcessorRequiresCollaborators(t *testing.T) {
	proc := NewOCRProcessor(nil, nil, OCRProcessorConfig{})
	assert.Error(t, proc.Start(context.Background()))
	assert.False(t, proc.IsRunning())
	assert.Equal(t, 5*time.Second, proc.config.RetryInterval)
}
