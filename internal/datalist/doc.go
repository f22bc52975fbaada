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

// Package datalist resolves installation-wide named settings across
// ordered storage tiers.
//
// # Tiers
//
// Resolve consults, in order:
//
//  1. the process memo cache (a hit is terminal, even if stale)
//  2. static settings loaded from a file at startup
//  3. the distributed cache, when configured and available
//  4. the site's persistent attributes, first by bare name and then by
//     the namespaced key "config:" + name
//
// # Persistence
//
// Persist writes only the persistent tier, under the namespaced key, and
// commits it with the store's Save. The distributed cache is never written
// or invalidated, so it may serve a stale value until its entry expires.
//
// # Concurrency
//
// Values follow last-write-wins across processes sharing one store. There
// is no version check or compare-and-swap.
package datalist
