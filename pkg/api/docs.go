// Package api serves the watcher's indexed data over HTTP.
// @title SubgraphWatcher API
// @version 1.0
// @description REST API for querying entities, events and state indexed by SubgraphWatcher
// @contact.name API Support
// @contact.url https://github.com/goran-ethernal/SubgraphWatcher
// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @basePath /api/v1
// @schemes http https
package api
