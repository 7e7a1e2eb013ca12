package integration

import (
	"fmt"
	"sort"

	"github.com/tombee/nodekit/internal/integration/fetias"
	"github.com/tombee/nodekit/internal/integration/friendgrid"
	"github.com/tombee/nodekit/internal/integration/halopsa"
	"github.com/tombee/nodekit/internal/node"
	"github.com/tombee/nodekit/internal/node/api"
)

// Factory builds an adapter from the shared provider configuration.
type Factory func(config *api.ProviderConfig) (node.Adapter, error)

// BuiltinRegistry holds all built-in adapter factories.
var BuiltinRegistry = map[string]Factory{
	"fetias":     fetias.NewFetiasIntegration,
	"friendgrid": friendgrid.NewFriendGridIntegration,
	"halopsa":    halopsa.NewHaloPSAIntegration,
}

// Names returns the registered adapter names, sorted.
func Names() []string {
	names := make([]string, 0, len(BuiltinRegistry))
	for name := range BuiltinRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New instantiates the named adapter.
func New(name string, config *api.ProviderConfig) (node.Adapter, error) {
	factory, ok := BuiltinRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown adapter %q (available: %v)", name, Names())
	}
	return factory(config)
}
