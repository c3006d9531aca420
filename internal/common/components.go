package common

const (
	ComponentWatcher       = "watcher"
	ComponentPipeline      = "pipeline"
	ComponentFrothy        = "frothy"
	ComponentCheckpoint    = "checkpoint"
	ComponentStore         = "store"
	ComponentRegistry      = "registry"
	ComponentFetcher       = "fetcher"
	ComponentReorgDetector = "reorg-detector"
	ComponentMaintenance   = "maintenance"
	ComponentAPI           = "api"
	ComponentHooks         = "hooks"
	ComponentMetrics       = "metrics"
)

var AllComponents = map[string]struct{}{
	ComponentWatcher:       {},
	ComponentPipeline:      {},
	ComponentFrothy:        {},
	ComponentCheckpoint:    {},
	ComponentStore:         {},
	ComponentRegistry:      {},
	ComponentFetcher:       {},
	ComponentReorgDetector: {},
	ComponentMaintenance:   {},
	ComponentAPI:           {},
	ComponentHooks:         {},
	ComponentMetrics:       {},
}
