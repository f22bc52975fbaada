// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package idgen generates the process instance ID and per-invocation
// operation IDs that tag log lines.
package idgen

import (
	crand "crypto/rand"
	"encoding/base32"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

var (
	defaultOnce sync.Once
	defaultGen  *FlakeGenerator
)

// FlakeGenerator hands out roughly time-ordered positive int64 IDs.
type FlakeGenerator struct {
	sf *sonyflake.Sonyflake
}

func NewFlakeGenerator() (*FlakeGenerator, error) {
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return nil, err
	}
	if sf == nil {
		return nil, errors.New("failed to create Sonyflake instance")
	}
	return &FlakeGenerator{sf: sf}, nil
}

// NextID returns the next ID, falling back to a random value if the
// generator is exhausted.
func (g *FlakeGenerator) NextID() int64 {
	if g == nil || g.sf == nil {
		return rand.Int64()
	}
	v, err := g.sf.NextID()
	if err != nil {
		return rand.Int64()
	}
	return int64(v)
}

// InstanceID returns an ID from the shared generator. When no machine ID
// can be derived the result is random.
func InstanceID() int64 {
	defaultOnce.Do(func() {
		defaultGen, _ = NewFlakeGenerator()
	})
	return defaultGen.NextID()
}

// ShortID returns an 8 character lowercase base32 ID for correlating the
// log lines of one command. It is not suitable for anything security
// sensitive.
func ShortID() string {
	b := make([]byte, 5)
	_, _ = crand.Read(b)
	return strings.ToLower(base32.StdEncoding.EncodeToString(b))
}
