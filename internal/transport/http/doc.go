// Package http implements the HTTP handlers of the ecompulse web service.
// It is a thin layer between chi routing and the service layer: handlers
// parse and validate requests, call services, and render responses.
//
// # Request Flow
//
//	HTTP Request → Chi Router → Middleware → Handler → Service → Pipeline
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Handler Structure
//
// Each handler owns a Routes() chi.Router and follows this pattern:
//
//	func (h *Handler) HandleSomething(w http.ResponseWriter, r *http.Request) {
//	    // 1. Parse and validate the request
//	    req := &SomeRequest{}
//	    if err := render.Bind(r, req); err != nil { ... }
//
//	    // 2. Call the service layer
//	    result, err := h.service.DoSomething(r.Context(), req)
//	    if err != nil { h.renderError(w, r, err, ...) ; return }
//
//	    // 3. Render the response
//	    render.JSON(w, r, result)
//	}
//
// # Error Handling
//
// Failures render as RFC 7807 problem documents:
//
//	{
//	    "type": "/errors/run/already-active",
//	    "title": "Conflict",
//	    "status": 409,
//	    "detail": "a pipeline run is already in progress: run 4f1c...",
//	    "instance": "/api/runs#req-id",
//	    "error_code": "RUN_ACTIVE"
//	}
//
// # WebSocket Support
//
// The progress stream upgrades GET /ws/progress with Gorilla WebSocket,
// registers the client with the hub, and leaves the read/write pumps to
// the websocket package.
package http
