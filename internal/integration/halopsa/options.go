package halopsa

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/tombee/nodekit/internal/credential"
	"github.com/tombee/nodekit/internal/node"
)

// OptionLoaders returns the dropdown loaders: "sites" and "clients".
func (c *HaloPSAIntegration) OptionLoaders() []string {
	return []string{"sites", "clients"}
}

// LoadOptions lists sites or clients as name/value pairs sorted by name.
func (c *HaloPSAIntegration) LoadOptions(ctx context.Context, loader string, creds credential.Source) ([]node.Option, error) {
	var path, nameKey string
	switch loader {
	case "sites":
		path, nameKey = "site", "clientsite_name"
	case "clients":
		path, nameKey = "client", "name"
	default:
		return nil, node.NewOperationError("the option loader %q is not known", loader)
	}

	s, err := c.openSession(ctx, creds, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.request(ctx, s, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	items := node.ItemsFromValue(resp)
	options := make([]node.Option, 0, len(items))
	for _, it := range items {
		name := cast.ToString(it.JSON[nameKey])
		if name == "" {
			name = cast.ToString(it.JSON["name"])
		}
		options = append(options, node.Option{Name: name, Value: it.JSON["id"]})
	}
	sort.SliceStable(options, func(i, j int) bool {
		a, b := strings.ToLower(options[i].Name), strings.ToLower(options[j].Name)
		if a != b {
			return a < b
		}
		return options[i].Name < options[j].Name
	})
	return options, nil
}
