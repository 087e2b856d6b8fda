// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import "github.com/BunsDev/avalanche-teleporter/metrics"

// Meters are resolved lazily so the prometheus backend, enabled after
// package init, is picked up.
func metricCalls() metrics.CountVecMeter {
	return metrics.CounterVec("staker_calls_total", []string{"op", "outcome"})
}

func metricChurnRejections() metrics.CountMeter {
	return metrics.Counter("staker_churn_rejections_total")
}

func metricActiveValidators() metrics.GaugeMeter {
	return metrics.Gauge("staker_active_validators")
}

func metricPendingMessages() metrics.GaugeMeter {
	return metrics.Gauge("staker_pending_messages")
}

func countCall(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "err"
	}
	metricCalls().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome})
}
