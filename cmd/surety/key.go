// Copyright 2025 Blink Labs Software
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

package main

import (
	"crypto/rand"
	"fmt"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/internal/version"
	"github.com/spf13/cobra"
)

// newAddress derives a principal address from 32 random bytes
func newAddress() (types.Address, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return types.Address{}, err
	}
	return types.BytesToAddress(types.Keccak256(seed).Bytes()), nil
}

func keyCommand() *cobra.Command {
	count := 1
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Generate random principal addresses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for range count {
				address, err := newAddress()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), address.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of addresses to generate")
	return cmd
}

func versionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the program version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", programName, version.GetVersionString())
		},
	}
	return cmd
}
