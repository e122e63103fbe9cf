// core/genesis/spec.go
package genesis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"stakeledger/core/types"
)

// GenesisSpec describes the initial ledger.
type GenesisSpec struct {
	TotalIssuance uint64            `yaml:"totalIssuance"`
	Subnets       []SubnetSpec      `yaml:"subnets"`
	Balances      map[string]uint64 `yaml:"balances"`
	Hotkeys       []HotkeySpec      `yaml:"hotkeys"`
	Stakes        []StakeSpec       `yaml:"stakes"`
	Senate        []string          `yaml:"senate"`

	subnets  map[types.SubnetID]types.Mechanism
	balances map[types.ColdKey]uint64
	hotkeys  map[types.HotKey]types.ColdKey
}

type SubnetSpec struct {
	Netuid       uint16 `yaml:"netuid"`
	Mechanism    string `yaml:"mechanism"`
	Owner        string `yaml:"owner"`
	AlphaReserve uint64 `yaml:"alphaReserve"`
	TaoReserve   uint64 `yaml:"taoReserve"`

	mechanism types.Mechanism
	owner     types.ColdKey
}

type HotkeySpec struct {
	Hotkey   string `yaml:"hotkey"`
	Owner    string `yaml:"owner"`
	Delegate bool   `yaml:"delegate"`
	Take     uint16 `yaml:"take"`

	hotkey types.HotKey
	owner  types.ColdKey
}

// StakeSpec seeds a position. Amount is denominated in base currency; Alpha
// defaults to Amount when omitted.
type StakeSpec struct {
	Hotkey  string  `yaml:"hotkey"`
	Coldkey string  `yaml:"coldkey"`
	Netuid  uint16  `yaml:"netuid"`
	Amount  uint64  `yaml:"amount"`
	Alpha   *uint64 `yaml:"alpha,omitempty"`

	hotkey  types.HotKey
	coldkey types.ColdKey
}

// AlphaAmount returns the subnet units seeded by the entry.
func (s StakeSpec) AlphaAmount() uint64 {
	if s.Alpha != nil {
		return *s.Alpha
	}
	return s.Amount
}

// LoadGenesisSpec reads and validates the YAML genesis at path.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("genesis spec path must be provided")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis spec %q: %w", path, err)
	}
	spec, err := ParseGenesisSpec(raw)
	if err != nil {
		return nil, fmt.Errorf("genesis spec %q: %w", path, err)
	}
	return spec, nil
}

// ParseGenesisSpec decodes and validates a YAML genesis document. Unknown
// fields are rejected.
func ParseGenesisSpec(raw []byte) (*GenesisSpec, error) {
	var spec GenesisSpec
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := spec.validate(); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	return &spec, nil
}

func (s *GenesisSpec) validate() error {
	s.subnets = make(map[types.SubnetID]types.Mechanism, len(s.Subnets))
	for i := range s.Subnets {
		sub := &s.Subnets[i]
		id := types.SubnetID(sub.Netuid)
		if _, exists := s.subnets[id]; exists {
			return fmt.Errorf("subnet[%d]: duplicate netuid %d", i, sub.Netuid)
		}
		mechanism, err := types.ParseMechanism(sub.Mechanism)
		if err != nil {
			return fmt.Errorf("subnet[%d]: %w", i, err)
		}
		owner, err := types.ParseColdKey(sub.Owner)
		if err != nil {
			return fmt.Errorf("subnet[%d] owner: %w", i, err)
		}
		sub.mechanism = mechanism
		sub.owner = owner
		s.subnets[id] = mechanism
	}

	s.balances = make(map[types.ColdKey]uint64, len(s.Balances))
	for account, amount := range s.Balances {
		key, err := types.ParseColdKey(account)
		if err != nil {
			return fmt.Errorf("balances[%q]: %w", account, err)
		}
		if _, dup := s.balances[key]; dup {
			return fmt.Errorf("balances[%q]: duplicate account", account)
		}
		s.balances[key] = amount
	}

	s.hotkeys = make(map[types.HotKey]types.ColdKey, len(s.Hotkeys))
	for i := range s.Hotkeys {
		hk := &s.Hotkeys[i]
		hotkey, err := types.ParseHotKey(hk.Hotkey)
		if err != nil {
			return fmt.Errorf("hotkey[%d]: %w", i, err)
		}
		owner, err := types.ParseColdKey(hk.Owner)
		if err != nil {
			return fmt.Errorf("hotkey[%d] owner: %w", i, err)
		}
		if _, exists := s.hotkeys[hotkey]; exists {
			return fmt.Errorf("hotkey[%d]: duplicate hotkey %s", i, hotkey)
		}
		if hk.Take != 0 && !hk.Delegate {
			return fmt.Errorf("hotkey[%d]: take requires delegate", i)
		}
		hk.hotkey = hotkey
		hk.owner = owner
		s.hotkeys[hotkey] = owner
	}

	for i := range s.Stakes {
		st := &s.Stakes[i]
		hotkey, err := types.ParseHotKey(st.Hotkey)
		if err != nil {
			return fmt.Errorf("stake[%d]: %w", i, err)
		}
		coldkey, err := types.ParseColdKey(st.Coldkey)
		if err != nil {
			return fmt.Errorf("stake[%d] coldkey: %w", i, err)
		}
		if _, ok := s.hotkeys[hotkey]; !ok {
			return fmt.Errorf("stake[%d]: undeclared hotkey %s", i, hotkey)
		}
		id := types.SubnetID(st.Netuid)
		if _, ok := s.subnets[id]; !ok && id != types.RootSubnet {
			return fmt.Errorf("stake[%d]: undeclared subnet %d", i, st.Netuid)
		}
		if st.Amount == 0 && st.AlphaAmount() == 0 {
			return fmt.Errorf("stake[%d]: amount must be positive", i)
		}
		st.hotkey = hotkey
		st.coldkey = coldkey
	}

	seen := make(map[types.HotKey]struct{}, len(s.Senate))
	for i, member := range s.Senate {
		hotkey, err := types.ParseHotKey(member)
		if err != nil {
			return fmt.Errorf("senate[%d]: %w", i, err)
		}
		if _, ok := s.hotkeys[hotkey]; !ok {
			return fmt.Errorf("senate[%d]: undeclared hotkey %s", i, hotkey)
		}
		if _, dup := seen[hotkey]; dup {
			return fmt.Errorf("senate[%d]: duplicate member %s", i, hotkey)
		}
		seen[hotkey] = struct{}{}
	}
	return nil
}

// sortedBalances returns the balance allocations ordered by account so the
// resulting state root does not depend on map iteration.
func (s *GenesisSpec) sortedBalances() []types.ColdKey {
	accounts := make([]types.ColdKey, 0, len(s.balances))
	for account := range s.balances {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i][:], accounts[j][:]) < 0
	})
	return accounts
}
