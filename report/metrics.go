/*
Copyright © 2024 the isisengine authors.
This file is part of isisengine.

isisengine is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

isisengine is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with isisengine.  If not, see <http://www.gnu.org/licenses/>.*/

package report

import "github.com/prometheus/client_golang/prometheus"

// Metrics is an optional Prometheus collector set for operators embedding
// this engine in a long-running service; cmd/specgen does not register it
// by default since it is a one-shot CLI, but a service wrapper can.
type Metrics struct {
	HashMisses   prometheus.Counter
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
}

// NewMetrics constructs a Metrics set and registers it with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HashMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "isisengine",
			Name:      "atomdb_hash_misses_total",
			Help:      "Number of secondary-hash probes during line database lookups.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "isisengine",
			Name:      "emisstore_cache_hits_total",
			Help:      "Number of emissivity block cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "isisengine",
			Name:      "emisstore_cache_misses_total",
			Help:      "Number of emissivity block cache misses requiring a load.",
		}),
	}
	reg.MustRegister(m.HashMisses, m.CacheHits, m.CacheMisses)
	return m
}
