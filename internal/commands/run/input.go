// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package run

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tombee/nodekit/internal/node"
)

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadItems reads the input items. No path means one empty item.
func loadItems(path string, stdin io.Reader) ([]node.Item, error) {
	if path == "" {
		return []node.Item{node.NewItem(nil)}, nil
	}
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	return node.ParseItems(data)
}

// loadParams reads the parameters. A params file holds one value per
// parameter shared by every item; an item-params file has the form
// {shared: {...}, items: [{...}, ...]} with per-item overrides.
func loadParams(paramsPath, itemParamsPath string, stdin io.Reader) (node.Params, error) {
	if paramsPath != "" && itemParamsPath != "" {
		return nil, fmt.Errorf("--params and --item-params are mutually exclusive")
	}

	switch {
	case itemParamsPath != "":
		data, err := readInput(itemParamsPath, stdin)
		if err != nil {
			return nil, err
		}
		var p node.ItemParams
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", itemParamsPath, err)
		}
		return &p, nil

	case paramsPath != "":
		data, err := readInput(paramsPath, stdin)
		if err != nil {
			return nil, err
		}
		p := node.StaticParams{}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", paramsPath, err)
		}
		return p, nil
	}
	return node.StaticParams{}, nil
}
