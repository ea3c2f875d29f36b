// Package rpc exposes the node over JSON-RPC and websocket streams. The
// HTTP surface speaks the one-object-params convention:
// {"method": "...", "params": [{...}]}, with the outcome status carried
// inside the result object.
package rpc

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"
)

// Server handles HTTP JSON-RPC requests.
type Server struct {
	registry *MethodRegistry
	timeout  time.Duration
}

// NewServer creates an RPC server over the node's services.
func NewServer(services *Services, timeout time.Duration) *Server {
	server := &Server{
		registry: NewMethodRegistry(),
		timeout:  timeout,
	}
	registerAllMethods(server.registry, services)
	return server
}

// Request is a JSON-RPC request: a method name and at most one params
// object carried in an array.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeResponse(w, nil, ErrorInternal("Failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeResponse(w, nil, ErrorInvalidJSON(err.Error()))
		return
	}
	if request.Method == "" {
		s.writeResponse(w, nil, ErrorMissingCommand())
		return
	}

	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx, cancel := contextWithTimeout(r, s.timeout)
	defer cancel()

	result, rpcErr := s.executeMethod(ctx, request.Method, params)
	s.writeResponse(w, result, rpcErr)
}

func (s *Server) executeMethod(ctx *Context, method string, params json.RawMessage) (map[string]interface{}, *Error) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, ErrorMethodNotFound(method)
	}
	return handler.Handle(ctx, params)
}

// writeResponse writes the response envelope. Status lives inside the
// result object: "success", or "error" with error/error_code tagging.
func (s *Server) writeResponse(w http.ResponseWriter, result map[string]interface{}, rpcErr *Error) {
	var resultObj map[string]interface{}
	if rpcErr != nil {
		resultObj = map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.Name,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
	} else {
		if result == nil {
			result = map[string]interface{}{}
		}
		result["status"] = "success"
		resultObj = result
	}

	data, err := json.Marshal(map[string]interface{}{"result": resultObj})
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
