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

package runonce

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var executionCounter metric.Int64Counter

func init() {
	meter := otel.Meter("github.com/cardinalhq/siteconf/internal/runonce")

	var err error
	executionCounter, err = meter.Int64Counter(
		"siteconf.runonce.executions",
		metric.WithDescription("Run-once guard decisions by operation and result"),
	)
	if err != nil {
		log.Fatalf("failed to create runonce.executions counter: %v", err)
	}
}

func recordExecution(ctx context.Context, operation, result string) {
	executionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}
