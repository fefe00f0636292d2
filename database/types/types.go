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

package types

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/holiman/uint256"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// Address identifies a principal (airline, passenger, oracle or owner)
type Address [AddressLength]byte

func ParseAddress(s string) (Address, error) {
	var ret Address
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != AddressLength*2 {
		return ret, fmt.Errorf("invalid address length: %d", len(s))
	}
	if _, err := hex.Decode(ret[:], []byte(s)); err != nil {
		return ret, fmt.Errorf("invalid address: %w", err)
	}
	return ret, nil
}

func BytesToAddress(b []byte) Address {
	var ret Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(ret[AddressLength-len(b):], b)
	return ret
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	tmp, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

func (Address) GormDataType() string {
	return "bytes"
}

func (a Address) Value() (driver.Value, error) {
	return a[:], nil
}

func (a *Address) Scan(val any) error {
	v, ok := val.([]byte)
	if !ok {
		return fmt.Errorf(
			"value was not expected type, wanted []byte, got %T",
			val,
		)
	}
	if len(v) != AddressLength {
		return fmt.Errorf("invalid address length: %d", len(v))
	}
	copy(a[:], v)
	return nil
}

// Hash is a Keccak-256 digest used for flight and oracle request keys
type Hash [HashLength]byte

func ParseHash(s string) (Hash, error) {
	var ret Hash
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != HashLength*2 {
		return ret, fmt.Errorf("invalid hash length: %d", len(s))
	}
	if _, err := hex.Decode(ret[:], []byte(s)); err != nil {
		return ret, fmt.Errorf("invalid hash: %w", err)
	}
	return ret, nil
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	tmp, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = tmp
	return nil
}

func (Hash) GormDataType() string {
	return "bytes"
}

func (h Hash) Value() (driver.Value, error) {
	return h[:], nil
}

func (h *Hash) Scan(val any) error {
	v, ok := val.([]byte)
	if !ok {
		return fmt.Errorf(
			"value was not expected type, wanted []byte, got %T",
			val,
		)
	}
	if len(v) != HashLength {
		return fmt.Errorf("invalid hash length: %d", len(v))
	}
	copy(h[:], v)
	return nil
}

// Amount is a wei-denominated value stored as a decimal string
type Amount struct {
	uint256.Int
}

func NewAmount(v *uint256.Int) Amount {
	var ret Amount
	if v != nil {
		ret.Set(v)
	}
	return ret
}

// Uint256 returns a copy of the underlying value
func (a Amount) Uint256() *uint256.Int {
	return new(uint256.Int).Set(&a.Int)
}

// ParseAmount parses a decimal wei string
func ParseAmount(s string) (Amount, error) {
	var ret Amount
	if err := ret.SetFromDecimal(s); err != nil {
		return ret, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return ret, nil
}

func (a Amount) String() string {
	return a.Dec()
}

func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.Dec()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	tmp, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// MarshalJSON encodes the amount as a quoted decimal string
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Dec())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return a.UnmarshalText([]byte(s))
}

// MarshalCBOR encodes the amount as a CBOR integer or bignum
func (a Amount) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.ToBig())
}

func (a *Amount) UnmarshalCBOR(data []byte) error {
	var tmp big.Int
	if err := cbor.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if tmp.Sign() < 0 {
		return fmt.Errorf("negative amount: %s", tmp.String())
	}
	if overflow := a.SetFromBig(&tmp); overflow {
		return fmt.Errorf("amount overflows 256 bits: %s", tmp.String())
	}
	return nil
}

func (Amount) GormDataType() string {
	return "string"
}

func (a Amount) Value() (driver.Value, error) {
	return a.Dec(), nil
}

func (a *Amount) Scan(val any) error {
	var v string
	switch tv := val.(type) {
	case string:
		v = tv
	case []byte:
		v = string(tv)
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if v == "" {
		a.Clear()
		return nil
	}
	if err := a.SetFromDecimal(v); err != nil {
		return fmt.Errorf("failed to set amount from string %q: %w", v, err)
	}
	return nil
}

var ErrBlobKeyNotFound = errors.New("blob key not found")

var ErrTxnWrongType = errors.New("invalid transaction type")

var ErrNilTxn = errors.New("nil transaction")

var ErrNoStoreAvailable = errors.New("no store available")

var ErrBlobStoreUnavailable = errors.New("blob store unavailable")

type Txn interface {
	Commit() error
	Rollback() error
}
