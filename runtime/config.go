// Copyright 2026 The aotpy Authors. All Rights Reserved.
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

package aotpy

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the tunables of the runtime. It is usually loaded from a TOML
// file such as:
//
//	recursion_limit = 1000
//	max_heap_slots = 65536
//	trace_level = "info"
type Config struct {
	// RecursionLimit bounds the depth of nested calls and resumptions on a
	// single stack.
	RecursionLimit int `toml:"recursion_limit"`
	ArgsCacheSize  int `toml:"args_cache_size"`
	ArgsCacheArgc  int `toml:"args_cache_argc"`
	FrameCacheSize int `toml:"frame_cache_size"`
	// MaxHeapSlots bounds the execution context storage of all live
	// suspendable computations. Zero means no limit.
	MaxHeapSlots int `toml:"max_heap_slots"`
	HeapPoolSize int `toml:"heap_pool_size"`
	// WarnUnawaited enables the RuntimeWarning emitted when a coroutine is
	// released without ever being awaited.
	WarnUnawaited bool   `toml:"warn_unawaited"`
	TraceLevel    string `toml:"trace_level"`
}

// DefaultConfig returns the configuration used when Configure has not been
// called.
func DefaultConfig() Config {
	return Config{
		RecursionLimit: 1000,
		ArgsCacheSize:  16,
		ArgsCacheArgc:  6,
		FrameCacheSize: 64,
		HeapPoolSize:   32,
		WarnUnawaited:  true,
		TraceLevel:     "error",
	}
}

// Validate reports the first invalid setting in c.
func (c Config) Validate() error {
	switch {
	case c.RecursionLimit <= 0:
		return fmt.Errorf("recursion_limit must be positive, got %d", c.RecursionLimit)
	case c.ArgsCacheSize < 0:
		return fmt.Errorf("args_cache_size must not be negative, got %d", c.ArgsCacheSize)
	case c.ArgsCacheArgc < 0:
		return fmt.Errorf("args_cache_argc must not be negative, got %d", c.ArgsCacheArgc)
	case c.FrameCacheSize < 0:
		return fmt.Errorf("frame_cache_size must not be negative, got %d", c.FrameCacheSize)
	case c.MaxHeapSlots < 0:
		return fmt.Errorf("max_heap_slots must not be negative, got %d", c.MaxHeapSlots)
	case c.HeapPoolSize < 0:
		return fmt.Errorf("heap_pool_size must not be negative, got %d", c.HeapPoolSize)
	}
	if _, err := parseTraceLevel(c.TraceLevel); err != nil {
		return err
	}
	return nil
}

// ParseConfig decodes TOML data on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse runtime config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid runtime config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and parses the TOML file at path. A missing file yields
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read runtime config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// Encode renders c as TOML.
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode runtime config: %w", err)
	}
	return data, nil
}

type runtimeSettings struct {
	recursionLimit int
	argsCacheSize  int
	argsCacheArgc  int
	frameCacheSize int
	warnUnawaited  bool
	allocator      Allocator
}

var (
	defaultSettings = newRuntimeSettings(DefaultConfig())
	activeSettings  atomic.Pointer[runtimeSettings]
)

func newRuntimeSettings(c Config) *runtimeSettings {
	return &runtimeSettings{
		recursionLimit: c.RecursionLimit,
		argsCacheSize:  c.ArgsCacheSize,
		argsCacheArgc:  c.ArgsCacheArgc,
		frameCacheSize: c.FrameCacheSize,
		warnUnawaited:  c.WarnUnawaited,
		allocator:      NewDefaultAllocator(c.MaxHeapSlots, c.HeapPoolSize),
	}
}

func currentSettings() *runtimeSettings {
	if s := activeSettings.Load(); s != nil {
		return s
	}
	return defaultSettings
}

// Configure applies c to the runtime. Stacks created before the call keep
// their caches but observe the new limits.
func Configure(c Config) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("configure runtime: %w", err)
	}
	level, _ := parseTraceLevel(c.TraceLevel)
	activeSettings.Store(newRuntimeSettings(c))
	setTraceLevel(level)
	return nil
}

// SetAllocator replaces the allocator providing execution context storage.
// Heaps allocated earlier are returned to the allocator they came from.
func SetAllocator(a Allocator) {
	s := *currentSettings()
	s.allocator = a
	activeSettings.Store(&s)
}

// CurrentAllocator returns the allocator in use.
func CurrentAllocator() Allocator {
	return currentSettings().allocator
}
