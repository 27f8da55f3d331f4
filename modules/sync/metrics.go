// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	packetsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "n42",
		Subsystem: "sync",
		Name:      "packets_sent_total",
		Help:      "Sync Engine packets sent, by packet type.",
	}, []string{"type"})

	packetsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "n42",
		Subsystem: "sync",
		Name:      "packets_received_total",
		Help:      "Sync Engine packets received, by packet type.",
	}, []string{"type"})

	peerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "n42",
		Subsystem: "sync",
		Name:      "peers",
		Help:      "Number of peers currently registered with the Sync Engine.",
	})

	downloadQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "n42",
		Subsystem: "sync",
		Name:      "download_queue_depth",
		Help:      "Number of blocks currently buffered in the download queue.",
	})

	blocksCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "n42",
		Subsystem: "sync",
		Name:      "blocks_committed_total",
		Help:      "Blocks committed by maintainDownloadingQueue.",
	})

	protocolErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "n42",
		Subsystem: "sync",
		Name:      "protocol_errors_total",
		Help:      "Inbound frames rejected by envelope validation.",
	})
)
