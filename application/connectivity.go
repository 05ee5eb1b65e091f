package application

import (
	"context"
	"sort"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/markpeek/remotes/domain"
	providerPkg "github.com/markpeek/remotes/infrastructure/provider"
)

// ConnectivityMonitor tracks whether each registered provider is reachable.
// Reachability is about the network path, not authorization: a provider
// that answers with an auth or rate-limit error is up.
type ConnectivityMonitor struct {
	registry *providerPkg.Registry

	mu       sync.RWMutex
	statuses map[domain.Provider]domain.ProviderStatus

	now func() time.Time
}

// NewConnectivityMonitor creates a monitor over the registered providers.
// No probe runs until Check, CheckAll, or Watch is called.
func NewConnectivityMonitor(registry *providerPkg.Registry) *ConnectivityMonitor {
	return &ConnectivityMonitor{
		registry: registry,
		statuses: make(map[domain.Provider]domain.ProviderStatus),
		now:      time.Now,
	}
}

// Check probes a single provider and records the outcome.
func (m *ConnectivityMonitor) Check(
	ctx context.Context,
	provider domain.Provider,
) (domain.ProviderStatus, error) {
	client, err := m.registry.Get(provider)
	if err != nil {
		return domain.ProviderStatus{}, err
	}
	status := m.probe(ctx, client)
	m.record(status)
	return status, nil
}

// CheckAll probes every registered provider concurrently and returns the
// outcomes in registry order. A provider being down never aborts the rest.
func (m *ConnectivityMonitor) CheckAll(ctx context.Context) []domain.ProviderStatus {
	clients := m.registry.All()
	results := make([]domain.ProviderStatus, len(clients))

	var group errgroup.Group
	for i, client := range clients {
		i, client := i, client
		group.Go(func() error {
			results[i] = m.probe(ctx, client)
			return nil
		})
	}
	_ = group.Wait()

	for _, status := range results {
		m.record(status)
	}
	return results
}

// Statuses returns the last recorded status of every provider, sorted by
// provider name. Providers that were never probed are absent.
func (m *ConnectivityMonitor) Statuses() []domain.ProviderStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]domain.ProviderStatus, 0, len(m.statuses))
	for _, status := range m.statuses {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Provider < statuses[j].Provider
	})
	return statuses
}

// LastStatus returns the most recent probe outcome for one provider.
func (m *ConnectivityMonitor) LastStatus(provider domain.Provider) (domain.ProviderStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[provider]
	return status, ok
}

// Watch re-probes all providers on a fixed interval until ctx ends. The
// first probe fires immediately so serve mode starts with fresh data.
func (m *ConnectivityMonitor) Watch(ctx context.Context, interval time.Duration) {
	m.CheckAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

func (m *ConnectivityMonitor) probe(
	ctx context.Context,
	client domain.ProviderClient,
) domain.ProviderStatus {
	status := domain.ProviderStatus{
		Provider:  client.Name(),
		Reachable: true,
		CheckedAt: m.now(),
	}

	err := client.CheckConnectivity(ctx)
	if err == nil {
		return status
	}
	switch domain.KindOf(err) {
	case domain.KindAuthFailed, domain.KindRateLimited:
		// The provider answered, so the network path is fine.
		status.Message = err.Error()
	default:
		status.Reachable = false
		status.Message = err.Error()
	}
	return status
}

// record stores a probe outcome and logs reachability transitions.
func (m *ConnectivityMonitor) record(status domain.ProviderStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous, seen := m.statuses[status.Provider]
	if !seen || previous.Reachable != status.Reachable {
		if status.Reachable {
			logger.Infof("provider %s is reachable", status.Provider)
		} else {
			logger.Warnf("provider %s is unreachable: %s", status.Provider, status.Message)
		}
	}
	m.statuses[status.Provider] = status
}
