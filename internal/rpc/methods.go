package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dutchd/dutchd/internal/chain"
	"github.com/dutchd/dutchd/internal/registry"
	"github.com/dutchd/dutchd/internal/storage/historydb"
)

// Services are the node components methods operate on.
type Services struct {
	Chain    *chain.Chain
	Registry *registry.Registry
	History  *historydb.DB
	Balances *chain.Balances

	// Started is when the node came up, reported by server_info.
	Started time.Time

	// Standalone is set when no block ticker runs and the chain only
	// advances by RPC. The advance method is refused otherwise.
	Standalone bool
}

// Context carries per-request state into method handlers.
type Context struct {
	context.Context
}

func contextWithTimeout(r *http.Request, timeout time.Duration) (*Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	return &Context{Context: ctx}, cancel
}

// Method is a single RPC method handler.
type Method interface {
	Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error)
}

// MethodRegistry maps method names to handlers.
type MethodRegistry struct {
	mu      sync.RWMutex
	methods map[string]Method
}

// NewMethodRegistry creates an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string]Method)}
}

// Register adds a method handler.
func (r *MethodRegistry) Register(name string, method Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = method
}

// Get looks up a method handler.
func (r *MethodRegistry) Get(name string) (Method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[name]
	return m, ok
}

// Names returns the registered method names.
func (r *MethodRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}

// registerAllMethods wires every RPC method to the node services. The
// HTTP and WebSocket servers share this set.
func registerAllMethods(registry *MethodRegistry, services *Services) {
	// Server methods
	registry.Register("server_info", &ServerInfoMethod{services: services})
	registry.Register("ping", &PingMethod{})

	// Auction methods
	registry.Register("auction_create", &AuctionCreateMethod{services: services})
	registry.Register("auction_info", &AuctionInfoMethod{services: services})
	registry.Register("auction_list", &AuctionListMethod{services: services})
	registry.Register("auction_bid", &AuctionBidMethod{services: services})
	registry.Register("auction_withdraw", &AuctionWithdrawMethod{services: services})
	registry.Register("auction_end", &AuctionEndMethod{services: services})
	registry.Register("auction_history", &AuctionHistoryMethod{services: services})

	// Account methods
	registry.Register("account_balance", &AccountBalanceMethod{services: services})

	// Standalone mode methods
	registry.Register("advance", &AdvanceMethod{services: services})
}

// Error is a JSON-RPC error.
type Error struct {
	Code    int
	Name    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

// Error codes.
const (
	CodeInvalidJSON    = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeMissingCommand = -32600
	CodeNotFound       = 19
	CodeNotSupported   = 36
	CodeRejected       = 104
)

func ErrorInvalidJSON(detail string) *Error {
	return &Error{Code: CodeInvalidJSON, Name: "jsonInvalid", Message: "Invalid JSON: " + detail}
}

func ErrorMethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Name: "unknownCmd", Message: "Unknown method: " + method}
}

func ErrorInvalidParams(detail string) *Error {
	return &Error{Code: CodeInvalidParams, Name: "invalidParams", Message: detail}
}

func ErrorInternal(detail string) *Error {
	return &Error{Code: CodeInternal, Name: "internal", Message: detail}
}

func ErrorMissingCommand() *Error {
	return &Error{Code: CodeMissingCommand, Name: "missingCommand", Message: "Missing method field"}
}

func ErrorNotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Name: "entryNotFound", Message: what + " not found"}
}

func ErrorNotSupported(detail string) *Error {
	return &Error{Code: CodeNotSupported, Name: "notSupported", Message: detail}
}
