package metrics

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/prometheus/client_golang/prometheus"
)

// StatusReader is the behavior required to read the status of the node.
type StatusReader interface {
	RetrieveStatus() state.Status
}

// ChainCollector exposes the status of the chain, the mempool and the miner
// as prometheus metrics. The values are read at scrape time.
type ChainCollector struct {
	src StatusReader

	length      *prometheus.Desc
	maxBlocks   *prometheus.Desc
	difficulty  *prometheus.Desc
	uncommitted *prometheus.Desc
	mining      *prometheus.Desc
}

// NewChainCollector constructs a collector for the specified node.
func NewChainCollector(src StatusReader) *ChainCollector {
	return &ChainCollector{
		src: src,

		length: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "length"),
			"Number of blocks in the chain, genesis included.",
			nil, nil,
		),
		maxBlocks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "max_blocks"),
			"Block limit of the chain, zero means no limit.",
			nil, nil,
		),
		difficulty: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "difficulty"),
			"Number of leading zero hex digits a block hash needs.",
			nil, nil,
		),
		uncommitted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "mempool", "transactions"),
			"Number of transactions waiting to be mined.",
			nil, nil,
		),
		mining: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "miner", "outcomes_total"),
			"Outcomes of the mining cycles, by result.",
			[]string{"result"}, nil,
		),
	}
}

// Describe implements the prometheus.Collector interface.
func (cc *ChainCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cc.length
	ch <- cc.maxBlocks
	ch <- cc.difficulty
	ch <- cc.uncommitted
	ch <- cc.mining
}

// Collect implements the prometheus.Collector interface.
func (cc *ChainCollector) Collect(ch chan<- prometheus.Metric) {
	status := cc.src.RetrieveStatus()

	ch <- prometheus.MustNewConstMetric(cc.length, prometheus.GaugeValue, float64(status.Length))
	ch <- prometheus.MustNewConstMetric(cc.maxBlocks, prometheus.GaugeValue, float64(status.MaxBlocks))
	ch <- prometheus.MustNewConstMetric(cc.difficulty, prometheus.GaugeValue, float64(status.Difficulty))
	ch <- prometheus.MustNewConstMetric(cc.uncommitted, prometheus.GaugeValue, float64(status.Uncommitted))

	outcomes := []struct {
		result string
		value  uint64
	}{
		{"mined", status.Mining.Mined},
		{"exhausted", status.Mining.Exhausted},
		{"rejected", status.Mining.Rejected},
		{"cancelled", status.Mining.Cancelled},
		{"proposed", status.Mining.Proposed},
	}
	for _, o := range outcomes {
		ch <- prometheus.MustNewConstMetric(cc.mining, prometheus.CounterValue, float64(o.value), o.result)
	}
}
