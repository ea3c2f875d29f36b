package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dutchd/dutchd/internal/core/auction"
	"github.com/dutchd/dutchd/internal/core/permit"
	"github.com/dutchd/dutchd/internal/core/types"
	"github.com/dutchd/dutchd/internal/registry"
)

// engineResult renders an engine result code the way transaction
// submission surfaces expect it.
func engineResult(r auction.Result) map[string]interface{} {
	return map[string]interface{}{
		"engine_result":         r.String(),
		"engine_result_code":    int(r),
		"engine_result_message": r.Message(),
		"applied":               r.IsApplied(),
	}
}

func parseAuctionID(raw string) (uuid.UUID, *Error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrorInvalidParams("malformed auction id")
	}
	return id, nil
}

func parseAccount(raw, field string) (types.AccountID, *Error) {
	account, err := types.ParseAccountID(raw)
	if err != nil {
		return types.ZeroAccount, ErrorInvalidParams("malformed " + field)
	}
	return account, nil
}

// PingMethod answers liveness probes.
type PingMethod struct{}

func (m *PingMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	return map[string]interface{}{}, nil
}

// ServerInfoMethod reports node state.
type ServerInfoMethod struct {
	services *Services
}

func (m *ServerInfoMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	env := m.services.Chain.Context()
	info := map[string]interface{}{
		"network_id":   env.NetworkID,
		"block_height": env.Height,
		"close_time":   env.CloseTime.UTC().Format(time.RFC3339),
		"uptime":       int64(time.Since(m.services.Started).Seconds()),
	}
	return map[string]interface{}{"info": info}, nil
}

// AuctionCreateMethod opens a new auction.
type AuctionCreateMethod struct {
	services *Services
}

type auctionCreateParams struct {
	Seller              string `json:"seller"`
	ReservePrice        uint64 `json:"reserve_price"`
	NumBlocksOpen       uint64 `json:"num_blocks_open"`
	OfferPriceDecrement uint64 `json:"offer_price_decrement"`
	PaymentToken        string `json:"payment_token,omitempty"`
	AssetID             uint64 `json:"asset_id,omitempty"`
}

func (m *AuctionCreateMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	var p auctionCreateParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ErrorInvalidParams(err.Error())
	}

	seller, rpcErr := parseAccount(p.Seller, "seller")
	if rpcErr != nil {
		return nil, rpcErr
	}

	req := registry.CreateRequest{
		Params: auction.Params{
			Seller:              seller,
			ReservePrice:        p.ReservePrice,
			NumBlocksOpen:       p.NumBlocksOpen,
			OfferPriceDecrement: p.OfferPriceDecrement,
		},
		AssetID: p.AssetID,
	}
	if p.PaymentToken != "" {
		token, rpcErr := parseAccount(p.PaymentToken, "payment_token")
		if rpcErr != nil {
			return nil, rpcErr
		}
		req.PaymentToken = token
	}

	id, err := m.services.Registry.Create(ctx, req)
	if err != nil {
		return nil, ErrorInvalidParams(err.Error())
	}

	a, err := m.services.Registry.Get(ctx, id)
	if err != nil {
		return nil, ErrorInternal(err.Error())
	}
	return map[string]interface{}{
		"auction_id":       id.String(),
		"instance_account": a.Instance().String(),
		"start_block":      a.StartBlock(),
		"initial_price":    a.Params().InitialPrice(),
	}, nil
}

// AuctionInfoMethod returns the full readable state of one auction.
type AuctionInfoMethod struct {
	services *Services
}

type auctionInfoParams struct {
	AuctionID string `json:"auction_id"`

	// Account optionally selects whose refund balance to report.
	Account string `json:"account,omitempty"`
}

func (m *AuctionInfoMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	var p auctionInfoParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ErrorInvalidParams(err.Error())
	}
	id, rpcErr := parseAuctionID(p.AuctionID)
	if rpcErr != nil {
		return nil, rpcErr
	}

	a, err := m.services.Registry.Get(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, ErrorNotFound("auction")
	}
	if err != nil {
		return nil, ErrorInternal(err.Error())
	}

	height := m.services.Chain.Height()
	info := map[string]interface{}{
		"auction_id":            id.String(),
		"instance_account":      a.Instance().String(),
		"seller":                a.Params().Seller.String(),
		"reserve_price":         a.Params().ReservePrice,
		"num_blocks_open":       a.Params().NumBlocksOpen,
		"offer_price_decrement": a.Params().OfferPriceDecrement,
		"start_block":           a.StartBlock(),
		"current_price":         a.CurrentPrice(height),
		"ended":                 a.Ended(),
		"highest_bid":           a.HighestBid(),
		"highest_bidder":        a.HighestBidder().String(),
		"asset_id":              a.AssetID(),
		"payment_token":         a.PaymentToken().String(),
	}
	if a.Ended() {
		info["settled_price"] = a.SettledPrice()
	}
	if p.Account != "" {
		account, rpcErr := parseAccount(p.Account, "account")
		if rpcErr != nil {
			return nil, rpcErr
		}
		info["refund"] = a.Refund(account)
	}
	return map[string]interface{}{"auction": info}, nil
}

// AuctionListMethod lists hosted auction ids.
type AuctionListMethod struct {
	services *Services
}

func (m *AuctionListMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	ids, err := m.services.Registry.List(ctx)
	if err != nil {
		return nil, ErrorInternal(err.Error())
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return map[string]interface{}{"auctions": out}, nil
}

// AuctionBidMethod submits a bid, optionally carrying a permit.
type AuctionBidMethod struct {
	services *Services
}

type permitParams struct {
	Value     uint64 `json:"value"`
	Nonce     uint64 `json:"nonce"`
	Deadline  int64  `json:"deadline"`
	Signature string `json:"signature"`
}

type auctionBidParams struct {
	AuctionID string        `json:"auction_id"`
	Bidder    string        `json:"bidder"`
	Amount    uint64        `json:"amount"`
	Permit    *permitParams `json:"permit,omitempty"`
}

func (m *AuctionBidMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	var p auctionBidParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ErrorInvalidParams(err.Error())
	}
	id, rpcErr := parseAuctionID(p.AuctionID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	bidder, rpcErr := parseAccount(p.Bidder, "bidder")
	if rpcErr != nil {
		return nil, rpcErr
	}

	op := auction.BidOp{Bidder: bidder, Amount: p.Amount}
	if p.Permit != nil {
		signature, err := hex.DecodeString(p.Permit.Signature)
		if err != nil {
			return nil, ErrorInvalidParams("malformed permit signature")
		}
		a, err := m.services.Registry.Get(ctx, id)
		if errors.Is(err, registry.ErrNotFound) {
			return nil, ErrorNotFound("auction")
		}
		if err != nil {
			return nil, ErrorInternal(err.Error())
		}
		op.Permit = &permit.Permit{
			Owner:     bidder,
			Spender:   a.Instance(),
			Value:     p.Permit.Value,
			Nonce:     p.Permit.Nonce,
			Deadline:  time.Unix(p.Permit.Deadline, 0),
			Signature: signature,
		}
	}

	result, err := m.services.Registry.SubmitBid(ctx, id, op)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, ErrorNotFound("auction")
	}
	if err != nil {
		return nil, ErrorInternal(err.Error())
	}
	return engineResult(result), nil
}

// AuctionWithdrawMethod withdraws the caller's refund balance.
type AuctionWithdrawMethod struct {
	services *Services
}

type auctionWithdrawParams struct {
	AuctionID string `json:"auction_id"`
	Account   string `json:"account"`
}

func (m *AuctionWithdrawMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	var p auctionWithdrawParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ErrorInvalidParams(err.Error())
	}
	id, rpcErr := parseAuctionID(p.AuctionID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAccount(p.Account, "account")
	if rpcErr != nil {
		return nil, rpcErr
	}

	result, err := m.services.Registry.Withdraw(ctx, id, account)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, ErrorNotFound("auction")
	}
	if err != nil {
		return nil, ErrorInternal(err.Error())
	}
	return engineResult(result), nil
}

// AuctionEndMethod terminates an auction on the seller's authority.
type AuctionEndMethod struct {
	services *Services
}

type auctionEndParams struct {
	AuctionID string `json:"auction_id"`
	Caller    string `json:"caller"`
}

func (m *AuctionEndMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	var p auctionEndParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ErrorInvalidParams(err.Error())
	}
	id, rpcErr := parseAuctionID(p.AuctionID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAccount(p.Caller, "caller")
	if rpcErr != nil {
		return nil, rpcErr
	}

	result, err := m.services.Registry.EndAuction(ctx, id, caller)
	if errors.Is(err, registry.ErrNotFound) {
		return nil, ErrorNotFound("auction")
	}
	if err != nil {
		return nil, ErrorInternal(err.Error())
	}
	return engineResult(result), nil
}

// AuctionHistoryMethod returns an auction's bid trail from the audit db.
type AuctionHistoryMethod struct {
	services *Services
}

func (m *AuctionHistoryMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	var p auctionInfoParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ErrorInvalidParams(err.Error())
	}
	id, rpcErr := parseAuctionID(p.AuctionID)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if m.services.History == nil {
		return nil, ErrorInternal("history database not configured")
	}

	trail, err := m.services.History.BidsForAuction(ctx, id)
	if err != nil {
		return nil, ErrorInternal(err.Error())
	}
	bids := make([]map[string]interface{}, len(trail))
	for i, rec := range trail {
		bids[i] = map[string]interface{}{
			"height": rec.Height,
			"bidder": rec.Bidder.String(),
			"amount": rec.Amount,
			"result": rec.Result,
		}
	}
	return map[string]interface{}{
		"auction_id": id.String(),
		"bids":       bids,
	}, nil
}

// AccountBalanceMethod reports an account's native balance.
type AccountBalanceMethod struct {
	services *Services
}

type accountBalanceParams struct {
	Account string `json:"account"`
}

func (m *AccountBalanceMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	var p accountBalanceParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, ErrorInvalidParams(err.Error())
	}
	account, rpcErr := parseAccount(p.Account, "account")
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]interface{}{
		"account": account.String(),
		"balance": m.services.Balances.BalanceOf(account),
	}, nil
}

// AdvanceMethod moves the chain forward by hand. Standalone mode only;
// production nodes advance on the block ticker.
type AdvanceMethod struct {
	services *Services
}

type advanceParams struct {
	Blocks uint64 `json:"blocks"`
}

func (m *AdvanceMethod) Handle(ctx *Context, params json.RawMessage) (map[string]interface{}, *Error) {
	if !m.services.Standalone {
		return nil, ErrorNotSupported("advance requires standalone mode")
	}
	p := advanceParams{Blocks: 1}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, ErrorInvalidParams(err.Error())
		}
	}
	m.services.Chain.Advance(p.Blocks, time.Second)
	return map[string]interface{}{"block_height": m.services.Chain.Height()}, nil
}
