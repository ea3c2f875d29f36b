package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var rpcURL string

// tokenDecimals is the display scale of native and token amounts.
const tokenDecimals = 18

// rpcCmd groups the client commands that talk to a running node.
var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "RPC client commands",
	Long:  `Send commands to a running dutchd node over HTTP JSON-RPC.`,
}

var rpcCallCmd = &cobra.Command{
	Use:   "call <method> [params-json]",
	Short: "Call an RPC method and print the raw result",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params json.RawMessage
		if len(args) == 2 {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("params must be a JSON object: %s", args[1])
			}
			params = json.RawMessage(args[1])
		}
		result, err := callMethod(args[0], params)
		if err != nil {
			return err
		}
		pretty, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
		return nil
	},
}

var rpcAuctionCmd = &cobra.Command{
	Use:   "auction <auction-id>",
	Short: "Show an auction with human-readable prices",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, _ := json.Marshal(map[string]string{"auction_id": args[0]})
		result, err := callMethod("auction_info", params)
		if err != nil {
			return err
		}
		info, ok := result["auction"].(map[string]interface{})
		if !ok {
			return fmt.Errorf("unexpected response shape: %v", result)
		}

		fmt.Printf("Auction %s\n", args[0])
		fmt.Printf("  seller:         %v\n", info["seller"])
		fmt.Printf("  start block:    %v\n", info["start_block"])
		fmt.Printf("  blocks open:    %v\n", info["num_blocks_open"])
		fmt.Printf("  reserve price:  %s\n", formatAmount(info["reserve_price"]))
		fmt.Printf("  decrement:      %s\n", formatAmount(info["offer_price_decrement"]))
		fmt.Printf("  current price:  %s\n", formatAmount(info["current_price"]))
		fmt.Printf("  highest bid:    %s\n", formatAmount(info["highest_bid"]))
		fmt.Printf("  highest bidder: %v\n", info["highest_bidder"])
		fmt.Printf("  ended:          %v\n", info["ended"])
		if settled, ok := info["settled_price"]; ok {
			fmt.Printf("  settled price:  %s\n", formatAmount(settled))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rpcCmd)
	rpcCmd.AddCommand(rpcCallCmd)
	rpcCmd.AddCommand(rpcAuctionCmd)

	rpcCmd.PersistentFlags().StringVar(&rpcURL, "url", "http://127.0.0.1:5005/", "node JSON-RPC endpoint")
}

// callMethod posts one request in the server's envelope and unwraps the
// result object, converting an error status into a Go error.
func callMethod(method string, params json.RawMessage) (map[string]interface{}, error) {
	request := map[string]interface{}{"method": method}
	if params != nil {
		request["params"] = []json.RawMessage{params}
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(rpcURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Result map[string]interface{} `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if envelope.Result["status"] == "error" {
		return nil, fmt.Errorf("%v: %v", envelope.Result["error"], envelope.Result["error_message"])
	}
	return envelope.Result, nil
}

// formatAmount renders a base-unit amount at the display scale.
func formatAmount(v interface{}) string {
	var d decimal.Decimal
	switch n := v.(type) {
	case float64:
		d = decimal.NewFromFloat(n)
	case json.Number:
		parsed, err := decimal.NewFromString(n.String())
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		d = parsed
	default:
		return fmt.Sprintf("%v", v)
	}
	return d.Shift(-tokenDecimals).String()
}
