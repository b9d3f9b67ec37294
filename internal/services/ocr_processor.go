package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/log"
)

// OCRResultConsumer streams OCR results to a handler until ctx is done.
type OCRResultConsumer interface {
	ConsumeOCRResults(ctx context.Context, handler func(context.Context, *amqp.OCRResultMessage) error) error
}

type OCRProcessorConfig struct {
	// RetryInterval is how long to wait before resubscribing after the
	// consumer fails (default: 5s)
	RetryInterval time.Duration
}

func DefaultOCRProcessorConfig() OCRProcessorConfig {
	return OCRProcessorConfig{RetryInterval: 5 * time.Second}
}

// OCRProcessor applies OCR results to expenses in the background.
type OCRProcessor struct {
	consumer OCRResultConsumer
	apply    func(context.Context, *amqp.OCRResultMessage) error
	config   OCRProcessorConfig
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
}

func NewOCRProcessor(consumer OCRResultConsumer, service *ExpenseService, config OCRProcessorConfig) *OCRProcessor {
	if config.RetryInterval <= 0 {
		config.RetryInterval = DefaultOCRProcessorConfig().RetryInterval
	}
	p := &OCRProcessor{
		consumer: consumer,
		config:   config,
		logger:   log.Default(log.ComponentAMQP),
	}
	if service != nil {
		p.apply = service.ApplyOCRResult
		p.logger = service.logger.WithComponent(log.ComponentAMQP)
	}
	return p
}

// Start begins consuming. Returns an error if already running.
func (p *OCRProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("OCR processor is already running")
	}
	if p.consumer == nil || p.apply == nil {
		return fmt.Errorf("OCR processor needs a consumer and an expense service")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.doneCh = make(chan struct{})
	go p.runLoop(runCtx, p.doneCh)

	p.logger.InfoContext(ctx, "OCR processor started")
	return nil
}

// Stop cancels consumption and waits for the loop to exit.
func (p *OCRProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	cancel, done := p.cancel, p.doneCh
	p.mu.Unlock()

	cancel()
	select {
	case <-done:
		p.logger.InfoContext(ctx, "OCR processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "OCR processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *OCRProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Done is closed once the loop has exited.
func (p *OCRProcessor) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneCh
}

func (p *OCRProcessor) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		err := p.consumer.ConsumeOCRResults(ctx, p.apply)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			p.logger.ErrorContext(ctx, "OCR result consumer failed, resubscribing",
				log.FieldError, err, "retry_in", p.config.RetryInterval)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.config.RetryInterval):
		}
	}
}
