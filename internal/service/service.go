// Package service 业务层：身份、订单状态机、账本与评分
package service

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// Upload 上传文件；Body 由调用方负责关闭
type Upload struct {
	Filename string
	Body     io.Reader
}

var (
	listingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "market_listing_transitions_total", Help: "Listing lifecycle transitions"},
		[]string{"to"},
	)
	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "market_ledger_operations_total", Help: "Ledger credits and withdrawals"},
		[]string{"op", "result"},
	)
)

func init() { prometheus.MustRegister(listingTransitions, ledgerOps) }
