package notify_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/taskboard/internal/notify"
)

// flakySender falla las primeras failures entregas y después acepta.
type flakySender struct {
	failures int32
	calls    atomic.Int32
}

func (s *flakySender) Send(n notify.Notification) error {
	call := s.calls.Add(1)
	if call <= s.failures {
		return errors.New("smtp temporal")
	}
	return nil
}

func waitDelivery(t *testing.T, d *notify.Dispatcher) notify.Delivery {
	t.Helper()
	select {
	case res := <-d.Results():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timeout esperando la entrega")
		return notify.Delivery{}
	}
}

func TestDispatcherDeliversFirstTry(t *testing.T) {
	sender := &flakySender{}
	d := notify.NewDispatcher(sender, notify.DispatcherConfig{
		Workers: 1, QueueSize: 4, MaxAttempts: 3, Backoff: time.Millisecond,
	})
	defer shutdown(t, d)

	n := notify.Notification{Recipient: "dev@example.com", Subject: "hola", Message: "cuerpo"}
	if err := n.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := d.Enqueue(n); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	res := waitDelivery(t, d)
	if res.Err != nil || res.Attempts != 1 {
		t.Fatalf("delivery = %+v", res)
	}
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	sender := &flakySender{failures: 2}
	d := notify.NewDispatcher(sender, notify.DispatcherConfig{
		Workers: 1, QueueSize: 4, MaxAttempts: 3, Backoff: time.Millisecond,
	})
	defer shutdown(t, d)

	if err := d.Enqueue(notify.Notification{ID: "n1", Recipient: "a@b.c", Subject: "s", Message: "m"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	res := waitDelivery(t, d)
	if res.Err != nil {
		t.Fatalf("esperaba entrega exitosa tras reintentos: %+v", res)
	}
	if res.Attempts != 3 {
		t.Fatalf("attempts = %d, esperaba 3", res.Attempts)
	}
}

func TestDispatcherGivesUpAfterMaxAttempts(t *testing.T) {
	sender := &flakySender{failures: 100}
	d := notify.NewDispatcher(sender, notify.DispatcherConfig{
		Workers: 1, QueueSize: 4, MaxAttempts: 2, Backoff: time.Millisecond,
	})
	defer shutdown(t, d)

	if err := d.Enqueue(notify.Notification{ID: "n1", Recipient: "a@b.c", Subject: "s", Message: "m"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	res := waitDelivery(t, d)
	if res.Err == nil {
		t.Fatal("esperaba fallo definitivo")
	}
	if res.Attempts != 2 {
		t.Fatalf("attempts = %d, esperaba 2", res.Attempts)
	}
	if got := sender.calls.Load(); got != 2 {
		t.Fatalf("llamadas al sender = %d, esperaba 2", got)
	}
}

func TestEnqueueFailsFastWhenFull(t *testing.T) {
	// Sender que bloquea hasta que lo liberemos, para llenar la cola.
	release := make(chan struct{})
	blocking := senderFunc(func(n notify.Notification) error {
		<-release
		return nil
	})

	d := notify.NewDispatcher(blocking, notify.DispatcherConfig{
		Workers: 1, QueueSize: 1, MaxAttempts: 1, Backoff: time.Millisecond,
	})
	defer func() {
		close(release)
		shutdown(t, d)
	}()

	n := notify.Notification{ID: "n", Recipient: "a@b.c", Subject: "s", Message: "m"}
	// Primera entra directo al worker, segunda llena el buffer.
	_ = d.Enqueue(n)
	time.Sleep(20 * time.Millisecond)
	_ = d.Enqueue(n)

	if err := d.Enqueue(n); !errors.Is(err, notify.ErrQueueFull) {
		t.Fatalf("err = %v, esperaba ErrQueueFull", err)
	}
}

func TestEnqueueAfterShutdownIsClosed(t *testing.T) {
	d := notify.NewDispatcher(&flakySender{}, notify.DispatcherConfig{
		Workers: 1, QueueSize: 1, MaxAttempts: 1, Backoff: time.Millisecond,
	})
	shutdown(t, d)

	err := d.Enqueue(notify.Notification{ID: "n", Recipient: "a@b.c", Subject: "s", Message: "m"})
	if !errors.Is(err, notify.ErrClosed) {
		t.Fatalf("err = %v, esperaba ErrClosed", err)
	}
}

func TestEnqueueConcurrentWithShutdownDoesNotPanic(t *testing.T) {
	n := notify.Notification{ID: "n", Recipient: "a@b.c", Subject: "s", Message: "m"}

	for i := 0; i < 200; i++ {
		d := notify.NewDispatcher(&flakySender{}, notify.DispatcherConfig{
			Workers: 2, QueueSize: 8, MaxAttempts: 1, Backoff: time.Millisecond,
		})

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					if err := d.Enqueue(n); errors.Is(err, notify.ErrClosed) {
						return
					}
				}
			}()
		}
		shutdown(t, d)
		wg.Wait()

		if err := d.Enqueue(n); !errors.Is(err, notify.ErrClosed) {
			t.Fatalf("err = %v, esperaba ErrClosed", err)
		}
	}
}

func TestNotificationValidate(t *testing.T) {
	n := notify.Notification{Recipient: "a@b.c", Subject: "s", Message: "m"}
	if err := n.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if n.ID == "" {
		t.Fatal("validate debería asignar id")
	}

	bad := notify.Notification{Subject: "s"}
	if err := bad.Validate(); !errors.Is(err, notify.ErrRecipientRequired) {
		t.Fatalf("err = %v, esperaba ErrRecipientRequired", err)
	}
}

type senderFunc func(notify.Notification) error

func (f senderFunc) Send(n notify.Notification) error { return f(n) }

func shutdown(t *testing.T, d *notify.Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
