package rpc

import (
	"encoding/json"
	"sync"
)

// SubscriptionType identifies an event stream.
type SubscriptionType string

const (
	SubAuctions SubscriptionType = "auctions"
	SubBids     SubscriptionType = "bids"
	SubBlocks   SubscriptionType = "blocks"
	SubAccounts SubscriptionType = "accounts"
)

// SubscriptionRequest is the params payload of subscribe and unsubscribe
// commands.
type SubscriptionRequest struct {
	Streams  []SubscriptionType `json:"streams,omitempty"`
	Accounts []string           `json:"accounts,omitempty"`
}

// SubscriptionConfig holds the state of one subscription on a connection.
type SubscriptionConfig struct {
	Type     SubscriptionType
	Accounts map[string]struct{}
}

// Connection is a subscriber registered with the manager. SendChannel
// must be drained by the owner; slow consumers get messages dropped.
type Connection struct {
	ID            string
	Subscriptions map[SubscriptionType]SubscriptionConfig
	SendChannel   chan []byte
	CloseChannel  chan struct{}
	mu            sync.RWMutex
}

// SubscriptionManager tracks which connections want which streams.
type SubscriptionManager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		connections: make(map[string]*Connection),
	}
}

// AddConnection registers a connection with no subscriptions.
func (sm *SubscriptionManager) AddConnection(conn *Connection) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.connections[conn.ID] = conn
}

// RemoveConnection drops a connection and all its subscriptions.
func (sm *SubscriptionManager) RemoveConnection(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.connections, id)
}

// HandleSubscribe adds the requested streams and accounts to conn.
func (sm *SubscriptionManager) HandleSubscribe(conn *Connection, request SubscriptionRequest) *Error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	for _, stream := range request.Streams {
		switch stream {
		case SubAuctions, SubBids, SubBlocks:
			conn.Subscriptions[stream] = SubscriptionConfig{Type: stream}
		default:
			return ErrorInvalidParams("unknown stream: " + string(stream))
		}
	}

	if len(request.Accounts) > 0 {
		config, ok := conn.Subscriptions[SubAccounts]
		if !ok {
			config = SubscriptionConfig{
				Type:     SubAccounts,
				Accounts: make(map[string]struct{}),
			}
		}
		for _, account := range request.Accounts {
			config.Accounts[account] = struct{}{}
		}
		conn.Subscriptions[SubAccounts] = config
	}
	return nil
}

// HandleUnsubscribe removes the requested streams and accounts from conn.
func (sm *SubscriptionManager) HandleUnsubscribe(conn *Connection, request SubscriptionRequest) *Error {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	for _, stream := range request.Streams {
		delete(conn.Subscriptions, stream)
	}
	if len(request.Accounts) > 0 {
		if config, ok := conn.Subscriptions[SubAccounts]; ok {
			for _, account := range request.Accounts {
				delete(config.Accounts, account)
			}
			if len(config.Accounts) == 0 {
				delete(conn.Subscriptions, SubAccounts)
			}
		}
	}
	return nil
}

// BroadcastToStream sends data to every connection subscribed to stream.
func (sm *SubscriptionManager) BroadcastToStream(stream SubscriptionType, data json.RawMessage) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, conn := range sm.connections {
		conn.mu.RLock()
		_, subscribed := conn.Subscriptions[stream]
		conn.mu.RUnlock()
		if !subscribed {
			continue
		}
		select {
		case conn.SendChannel <- data:
		default:
			// Slow consumer, drop the message.
		}
	}
}

// BroadcastToAccounts sends data to connections watching any of accounts.
func (sm *SubscriptionManager) BroadcastToAccounts(data json.RawMessage, accounts []string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, conn := range sm.connections {
		conn.mu.RLock()
		config, subscribed := conn.Subscriptions[SubAccounts]
		match := false
		if subscribed {
			for _, account := range accounts {
				if _, ok := config.Accounts[account]; ok {
					match = true
					break
				}
			}
		}
		conn.mu.RUnlock()
		if !match {
			continue
		}
		select {
		case conn.SendChannel <- data:
		default:
		}
	}
}

// SubscriberCount returns the number of connections on a stream.
func (sm *SubscriptionManager) SubscriberCount(stream SubscriptionType) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	count := 0
	for _, conn := range sm.connections {
		conn.mu.RLock()
		if _, ok := conn.Subscriptions[stream]; ok {
			count++
		}
		conn.mu.RUnlock()
	}
	return count
}
