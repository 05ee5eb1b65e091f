// Package provider hosts the Git hosting clients and the registry the rest of
// the service resolves them through.
package provider

import (
	"sort"

	"github.com/markpeek/remotes/domain"
)

// Registry holds the configured provider clients keyed by provider name.
type Registry struct {
	clients map[domain.Provider]domain.ProviderClient
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[domain.Provider]domain.ProviderClient),
	}
}

// Register adds a client under its provider name. Registering the same
// provider twice replaces the earlier client.
func (r *Registry) Register(client domain.ProviderClient) {
	r.clients[client.Name()] = client
}

// Get returns the client for the given provider.
func (r *Registry) Get(provider domain.Provider) (domain.ProviderClient, error) {
	client, ok := r.clients[provider]
	if !ok {
		return nil, domain.NewUnsupportedProvider(string(provider))
	}
	return client, nil
}

// All returns every registered client ordered by provider name.
func (r *Registry) All() []domain.ProviderClient {
	clients := make([]domain.ProviderClient, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].Name() < clients[j].Name()
	})
	return clients
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
