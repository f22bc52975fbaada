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

package datalist

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Tier names reported on the resolve counter.
const (
	TierMemo            = "memo"
	TierSettings        = "settings"
	TierCache           = "cache"
	TierStore           = "store"
	TierStoreNamespaced = "store_namespaced"
	tierMiss            = "miss"
	tierError           = "error"
)

var (
	resolveCounter metric.Int64Counter
	persistCounter metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/siteconf/internal/datalist")

	var err error

	resolveCounter, err = meter.Int64Counter(
		"siteconf.datalist.resolve",
		metric.WithDescription("Number of datalist lookups, by the tier that answered"),
	)
	if err != nil {
		log.Fatalf("failed to create datalist.resolve counter: %v", err)
	}

	persistCounter, err = meter.Int64Counter(
		"siteconf.datalist.persist",
		metric.WithDescription("Number of datalist writes to the persistent store"),
	)
	if err != nil {
		log.Fatalf("failed to create datalist.persist counter: %v", err)
	}
}

func recordResolve(ctx context.Context, tier string) {
	resolveCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func recordPersist(ctx context.Context, result string) {
	persistCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
