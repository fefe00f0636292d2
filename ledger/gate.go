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

package ledger

import (
	"context"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/event"
)

// IsOperational reports whether mutating calls are currently accepted
func (ls *LedgerState) IsOperational(ctx context.Context) (bool, error) {
	state, err := ls.ContractState(ctx)
	if err != nil {
		return false, err
	}
	return state.Operational, nil
}

// SetOperational opens or closes the operational gate. Only the owner may
// toggle it, and it can be reopened while closed
func (ls *LedgerState) SetOperational(
	ctx context.Context,
	caller types.Address,
	mode bool,
) error {
	return ls.Execute(
		ctx,
		Request{
			Name:     "setOperational",
			Caller:   caller,
			SkipGate: true,
		},
		func(c *Call) error {
			if c.Caller() != ls.owner {
				return ErrCallerNotOwner
			}
			state, err := c.State()
			if err != nil {
				return err
			}
			state.Operational = mode
			if err := c.SetState(state); err != nil {
				return err
			}
			c.Emit(
				event.ContractOperationalEventType,
				event.ContractOperationalEvent{
					Caller:      c.Caller(),
					Operational: mode,
				},
			)
			ls.config.Logger.Info(
				"operational mode changed",
				"component", "ledger",
				"operational", mode,
			)
			return nil
		},
	)
}
