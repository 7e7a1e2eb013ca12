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

/*
Package cli provides the root command and shared configuration for nodekit's CLI.

The CLI stands in for a workflow host: it resolves credentials, reads items
and parameters from files, runs one adapter operation and prints the output
items. Individual commands are implemented in the internal/commands
subpackages.

# Command Tree

	nodekit
	├── run           Run one adapter operation over items
	├── adapters      List adapters, resources and operations
	├── options       List dropdown option values
	├── credentials   List and test credentials
	└── version       Show version

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	rootCmd := cli.NewRootCommand()
	// ... add commands ...
	if err := rootCmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

	--verbose, -v    Enable debug logging
	--json           Output in JSON format
	--config         Path to config file
*/
package cli
