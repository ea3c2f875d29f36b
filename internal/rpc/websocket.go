package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketServer handles WebSocket connections for command dispatch and
// real-time subscriptions.
type WebSocketServer struct {
	upgrader            websocket.Upgrader
	subscriptionManager *SubscriptionManager
	methodRegistry      *MethodRegistry
	connections         map[string]*WebSocketConnection
	connectionsMutex    sync.RWMutex
	timeout             time.Duration
}

// WebSocketConnection is one upgraded client connection.
type WebSocketConnection struct {
	ID            string
	conn          *websocket.Conn
	subscriptions map[SubscriptionType]SubscriptionConfig
	sendChannel   chan []byte
	closeChannel  chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
}

// WebSocketCommand is the inbound message shape: command and id at top
// level, everything else treated as params.
type WebSocketCommand struct {
	Command string
	ID      interface{}
	Params  json.RawMessage
}

// WebSocketResponse is the outbound response shape.
type WebSocketResponse struct {
	Type   string                 `json:"type"`
	ID     interface{}            `json:"id,omitempty"`
	Status string                 `json:"status"`
	Result map[string]interface{} `json:"result,omitempty"`
}

// NewWebSocketServer creates a WebSocket server sharing the given
// services with the HTTP surface.
func NewWebSocketServer(services *Services, timeout time.Duration) *WebSocketServer {
	ws := &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		subscriptionManager: NewSubscriptionManager(),
		methodRegistry:      NewMethodRegistry(),
		connections:         make(map[string]*WebSocketConnection),
		timeout:             timeout,
	}
	registerAllMethods(ws.methodRegistry, services)
	return ws
}

// Subscriptions exposes the manager so a Publisher can broadcast into it.
func (ws *WebSocketServer) Subscriptions() *SubscriptionManager {
	return ws.subscriptionManager
}

// ServeHTTP upgrades the request and starts the connection pumps.
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:            generateConnectionID(),
		conn:          conn,
		subscriptions: make(map[SubscriptionType]SubscriptionConfig),
		sendChannel:   make(chan []byte, 256),
		closeChannel:  make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}

	ws.connectionsMutex.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.connectionsMutex.Unlock()

	ws.subscriptionManager.AddConnection(&Connection{
		ID:            wsConn.ID,
		Subscriptions: wsConn.subscriptions,
		SendChannel:   wsConn.sendChannel,
		CloseChannel:  wsConn.closeChannel,
	})

	go ws.handleConnection(wsConn)
	go ws.handleSend(wsConn)
}

func (ws *WebSocketServer) handleConnection(wsConn *WebSocketConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(512 * 1024)
	wsConn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	wsConn.conn.SetPongHandler(func(string) error {
		wsConn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

func (ws *WebSocketServer) handleSend(wsConn *WebSocketConnection) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-wsConn.closeChannel:
			return
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("WebSocket ping failed: %v", err)
				return
			}
		case message := <-wsConn.sendChannel:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket send failed: %v", err)
				return
			}
		}
	}
}

func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	var cmdMap map[string]interface{}
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, ErrorInvalidJSON(err.Error()), nil)
		return
	}

	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, ErrorMissingCommand(), nil)
		return
	}
	id := cmdMap["id"]

	delete(cmdMap, "command")
	delete(cmdMap, "id")

	cmd := WebSocketCommand{Command: command, ID: id}
	if len(cmdMap) > 0 {
		paramsBytes, _ := json.Marshal(cmdMap)
		cmd.Params = paramsBytes
	}

	switch cmd.Command {
	case "subscribe":
		ws.handleSubscribe(wsConn, cmd)
	case "unsubscribe":
		ws.handleUnsubscribe(wsConn, cmd)
	default:
		ws.handleRPCMethod(wsConn, cmd)
	}
}

func (ws *WebSocketServer) handleSubscribe(wsConn *WebSocketConnection, cmd WebSocketCommand) {
	var request SubscriptionRequest
	if len(cmd.Params) > 0 {
		if err := json.Unmarshal(cmd.Params, &request); err != nil {
			ws.sendError(wsConn, ErrorInvalidParams("invalid subscription parameters"), cmd.ID)
			return
		}
	}

	conn := ws.managerConnection(wsConn)
	if conn == nil {
		ws.sendError(wsConn, ErrorInternal("connection not registered"), cmd.ID)
		return
	}
	if rpcErr := ws.subscriptionManager.HandleSubscribe(conn, request); rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	ws.sendResponse(wsConn, WebSocketResponse{
		Type:   "response",
		ID:     cmd.ID,
		Status: "success",
		Result: map[string]interface{}{"subscribed": true},
	})
}

func (ws *WebSocketServer) handleUnsubscribe(wsConn *WebSocketConnection, cmd WebSocketCommand) {
	var request SubscriptionRequest
	if len(cmd.Params) > 0 {
		if err := json.Unmarshal(cmd.Params, &request); err != nil {
			ws.sendError(wsConn, ErrorInvalidParams("invalid subscription parameters"), cmd.ID)
			return
		}
	}

	conn := ws.managerConnection(wsConn)
	if conn == nil {
		ws.sendError(wsConn, ErrorInternal("connection not registered"), cmd.ID)
		return
	}
	if rpcErr := ws.subscriptionManager.HandleUnsubscribe(conn, request); rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	ws.sendResponse(wsConn, WebSocketResponse{
		Type:   "response",
		ID:     cmd.ID,
		Status: "success",
		Result: map[string]interface{}{"unsubscribed": true},
	})
}

func (ws *WebSocketServer) handleRPCMethod(wsConn *WebSocketConnection, cmd WebSocketCommand) {
	handler, exists := ws.methodRegistry.Get(cmd.Command)
	if !exists {
		ws.sendError(wsConn, ErrorMethodNotFound(cmd.Command), cmd.ID)
		return
	}

	ctx, cancel := context.WithTimeout(wsConn.ctx, ws.timeout)
	defer cancel()

	result, rpcErr := handler.Handle(&Context{Context: ctx}, cmd.Params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}
	ws.sendResponse(wsConn, WebSocketResponse{
		Type:   "response",
		ID:     cmd.ID,
		Status: "success",
		Result: result,
	})
}

// managerConnection finds the subscription-manager view of wsConn.
func (ws *WebSocketServer) managerConnection(wsConn *WebSocketConnection) *Connection {
	ws.subscriptionManager.mu.RLock()
	defer ws.subscriptionManager.mu.RUnlock()
	return ws.subscriptionManager.connections[wsConn.ID]
}

func (ws *WebSocketServer) sendResponse(wsConn *WebSocketConnection, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal WebSocket response: %v", err)
		return
	}
	ws.enqueue(wsConn, data)
}

// sendError writes the error fields at the top level of the message.
func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, rpcErr *Error, id interface{}) {
	response := map[string]interface{}{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.Name,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		response["id"] = id
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("Failed to marshal WebSocket error response: %v", err)
		return
	}
	ws.enqueue(wsConn, data)
}

func (ws *WebSocketServer) enqueue(wsConn *WebSocketConnection, data []byte) {
	select {
	case wsConn.sendChannel <- data:
	case <-wsConn.ctx.Done():
	default:
		log.Printf("WebSocket send channel full, closing connection %s", wsConn.ID)
		ws.closeConnection(wsConn)
	}
}

func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	wsConn.cancel()

	ws.connectionsMutex.Lock()
	delete(ws.connections, wsConn.ID)
	ws.connectionsMutex.Unlock()

	ws.subscriptionManager.RemoveConnection(wsConn.ID)
	wsConn.conn.Close()
}

var connectionSeq atomic.Uint64

func generateConnectionID() string {
	return fmt.Sprintf("conn_%d", connectionSeq.Add(1))
}
