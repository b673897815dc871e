package metrics

import "expvar"

var (
	FetchErrors       = expvar.NewInt("fetch_errors")
	ActivityFallbacks = expvar.NewInt("activity_fallbacks")
	Refreshes         = expvar.NewInt("refreshes")
	StaleDiscards     = expvar.NewInt("stale_discards")
	TradeListSaves    = expvar.NewInt("tradelist_saves")
)
