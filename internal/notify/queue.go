package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dropDatabas3/taskboard/internal/metrics"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
)

var (
	ErrRecipientRequired = errors.New("notify: recipient required")
	ErrSubjectRequired   = errors.New("notify: subject required")
	ErrQueueFull         = errors.New("notify: queue full")
	ErrClosed            = errors.New("notify: dispatcher closed")
)

// Delivery es el resultado final de una notificación: entregada o
// agotados los reintentos. Err == nil significa entregada.
type Delivery struct {
	Notification Notification
	Attempts     int
	Err          error
}

// DispatcherConfig configura la cola y los workers.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
}

// Dispatcher es la cola de notificaciones: Enqueue devuelve enseguida y
// los workers entregan con reintentos (at-least-once hasta MaxAttempts).
// Los resultados se publican en Results para quien quiera observarlos;
// si nadie consume, se descartan sin bloquear a los workers.
type Dispatcher struct {
	sender Sender
	cfg    DispatcherConfig

	queue   chan Notification
	results chan Delivery

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sender Sender, cfg DispatcherConfig) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}

	d := &Dispatcher{
		sender:  sender,
		cfg:     cfg,
		queue:   make(chan Notification, cfg.QueueSize),
		results: make(chan Delivery, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Enqueue acepta la notificación o falla rápido si la cola está llena.
// Nunca bloquea al request que la origina.
func (d *Dispatcher) Enqueue(n Notification) error {
	// El mutex cubre chequeo-de-cerrado + envío: Shutdown cierra queue bajo
	// el mismo lock, así un Enqueue concurrente nunca manda sobre canal cerrado.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	select {
	case d.queue <- n:
		metrics.NotifyQueueDepth.Inc()
		return nil
	default:
		return ErrQueueFull
	}
}

// Results expone el canal de resultados (entregas y fallos definitivos).
func (d *Dispatcher) Results() <-chan Delivery {
	return d.results
}

// Shutdown deja de aceptar trabajo y espera a que los workers drenen la
// cola, o hasta que el contexto expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for n := range d.queue {
		metrics.NotifyQueueDepth.Dec()
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n Notification) {
	log := logger.L().With(
		logger.String("notification_id", n.ID),
		logger.String("to", n.Recipient),
	)

	var err error
	attempts := 0
	for attempts < d.cfg.MaxAttempts {
		attempts++
		if err = d.sender.Send(n); err == nil {
			break
		}
		if attempts < d.cfg.MaxAttempts {
			metrics.NotifyDeliveriesTotal.WithLabelValues("retried").Inc()
			log.Warn("delivery failed, retrying",
				logger.Int("attempt", attempts), logger.Err(err))
			// Backoff lineal: suficiente para SMTP; sin jitter a propósito,
			// la cola ya serializa por worker.
			time.Sleep(time.Duration(attempts) * d.cfg.Backoff)
		}
	}

	if err == nil {
		metrics.NotifyDeliveriesTotal.WithLabelValues("sent").Inc()
		log.Info("notification delivered", logger.Int("attempts", attempts))
	} else {
		metrics.NotifyDeliveriesTotal.WithLabelValues("failed").Inc()
		log.Error("notification dropped after max attempts",
			logger.Int("attempts", attempts), logger.Err(err))
	}

	// Publicar resultado sin bloquear: si nadie escucha, se descarta.
	select {
	case d.results <- Delivery{Notification: n, Attempts: attempts, Err: err}:
	default:
	}
}
