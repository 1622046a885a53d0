// Package server exposes a watchlist store over HTTP for browsers and scripts on the same machine.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /watchlist"), so one path may carry
// several methods and unmatched methods get a 405 from the mux.
//
// # Watchlist Handler
//
// [WatchlistHandler] serves:
//   - GET /watchlist : the current snapshot as JSON
//   - GET /watchlist/stats : aggregate stats only
//   - GET /watchlist/{type}/{id} : a single entry
//   - GET /events : a Server-Sent Events stream of watchlist:update
//   - POST /events : one input event, {"type": "watchlist:add", "detail": {...}}
//   - GET /ws : a websocket carrying updates out and input events in
//
// Input events are decoded with [watchlist.DecodeEvent] and dispatched on the store's event channel,
// which is bound to the store with [watchlist.BindEvents].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
