// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrindex

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the counters the worker updates as it processes events.
// When no registerer is configured, the counters still exist but are
// simply never scraped by anything.
type metrics struct {
	blocksConnected    prometheus.Counter
	blocksDisconnected prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		blocksConnected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "addrindex",
			Name:      "blocks_connected_total",
			Help:      "Number of blocks the address index has connected.",
		}),
		blocksDisconnected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "addrindex",
			Name:      "blocks_disconnected_total",
			Help:      "Number of blocks the address index has disconnected.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.blocksConnected, m.blocksDisconnected)
	}

	return m
}
