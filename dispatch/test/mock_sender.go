package test

import (
	"context"
	"sync"
	"time"

	"inviqa/push-relay/channel"
)

// MockSender records deliveries. Behaviour can be set per endpoint id: an
// error to return, a delay before answering, or a panic.
type MockSender struct {
	sync.Mutex
	errs      map[string]error
	delays    map[string]time.Duration
	panics    map[string]bool
	delivered []channel.Delivery

	running    int
	maxRunning int
}

func NewMockSender() *MockSender {
	return &MockSender{
		errs:   map[string]error{},
		delays: map[string]time.Duration{},
		panics: map[string]bool{},
	}
}

func (m *MockSender) FailFor(endpointId string, err error) {
	m.Lock()
	defer m.Unlock()
	m.errs[endpointId] = err
}

func (m *MockSender) DelayFor(endpointId string, d time.Duration) {
	m.Lock()
	defer m.Unlock()
	m.delays[endpointId] = d
}

func (m *MockSender) PanicFor(endpointId string) {
	m.Lock()
	defer m.Unlock()
	m.panics[endpointId] = true
}

func (m *MockSender) Send(ctx context.Context, d channel.Delivery) error {
	m.Lock()
	m.running++
	if m.running > m.maxRunning {
		m.maxRunning = m.running
	}
	delay := m.delays[d.EndpointId]
	err := m.errs[d.EndpointId]
	shouldPanic := m.panics[d.EndpointId]
	m.Unlock()

	defer func() {
		m.Lock()
		m.running--
		m.Unlock()
	}()

	if shouldPanic {
		panic("sender exploded")
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err != nil {
		return err
	}

	m.Lock()
	m.delivered = append(m.delivered, d)
	m.Unlock()

	return nil
}

func (m *MockSender) Delivered() []channel.Delivery {
	m.Lock()
	defer m.Unlock()

	return append([]channel.Delivery{}, m.delivered...)
}

func (m *MockSender) MaxConcurrent() int {
	m.Lock()
	defer m.Unlock()

	return m.maxRunning
}
