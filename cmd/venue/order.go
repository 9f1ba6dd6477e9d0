package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"venue/transport/tcp"
)

func newOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Send order-entry requests to a running venue server",
	}

	cmd.AddCommand(newOrderPlaceCmd())
	cmd.AddCommand(newOrderCancelCmd())
	cmd.AddCommand(newOrderBookCmd())
	return cmd
}

func newOrderPlaceCmd() *cobra.Command {
	var server, symbol, side, orderType, quantity, price, stopPrice, owner string

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Submit a new order",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := tcp.Request{
				Type:      tcp.RequestSubmit,
				Symbol:    symbol,
				Side:      side,
				OrderType: orderType,
				Quantity:  quantity,
				Owner:     owner,
			}
			if price != "" {
				req.Price = &price
			}
			if stopPrice != "" {
				req.StopPrice = &stopPrice
			}
			resp, err := sendRequest(server, req)
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "127.0.0.1:9001", "address of the venue order-entry server")
	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument symbol (required)")
	cmd.Flags().StringVar(&side, "side", "buy", "buy or sell")
	cmd.Flags().StringVar(&orderType, "type", "limit", "market, limit, ioc, fok, stop, stop_limit, or take_profit")
	cmd.Flags().StringVar(&quantity, "quantity", "", "order quantity (required)")
	cmd.Flags().StringVar(&price, "price", "", "limit price, required for limit/stop_limit")
	cmd.Flags().StringVar(&stopPrice, "stop-price", "", "stop/trigger price, required for stop/stop_limit/take_profit")
	cmd.Flags().StringVar(&owner, "owner", "", "owner identifier attached to the order")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("quantity")
	return cmd
}

func newOrderCancelCmd() *cobra.Command {
	var server, symbol, orderID string

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a resting or pending order",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendRequest(server, tcp.Request{
				Type:    tcp.RequestCancel,
				Symbol:  symbol,
				OrderID: orderID,
			})
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "127.0.0.1:9001", "address of the venue order-entry server")
	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument symbol (required)")
	cmd.Flags().StringVar(&orderID, "order-id", "", "order ID to cancel (required)")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("order-id")
	return cmd
}

func newOrderBookCmd() *cobra.Command {
	var server, symbol string
	var depth int

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Print the top of book for a symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := sendRequest(server, tcp.Request{
				Type:   tcp.RequestSnapshot,
				Symbol: symbol,
				Depth:  depth,
			})
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "127.0.0.1:9001", "address of the venue order-entry server")
	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument symbol (required)")
	cmd.Flags().IntVar(&depth, "depth", 10, "number of price levels per side")
	cmd.MarkFlagRequired("symbol")
	return cmd
}

// sendRequest dials server, writes req as a single JSON line, and reads
// back exactly one JSON response line.
func sendRequest(server string, req tcp.Request) (tcp.Response, error) {
	conn, err := net.Dial("tcp", server)
	if err != nil {
		return tcp.Response{}, fmt.Errorf("dial %s: %w", server, err)
	}
	defer conn.Close()

	data, err := json.Marshal(req)
	if err != nil {
		return tcp.Response{}, err
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return tcp.Response{}, fmt.Errorf("write request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return tcp.Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp tcp.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return tcp.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func printResponse(resp tcp.Response) {
	switch resp.Type {
	case tcp.ResponseAck:
		fmt.Printf("ok: order_id=%s", resp.OrderID)
		if len(resp.Warnings) > 0 {
			fmt.Printf(" warnings=%v", resp.Warnings)
		}
		fmt.Println()
	case tcp.ResponseError:
		fmt.Printf("error: %s\n", resp.Error)
	case tcp.ResponseSnapshot:
		fmt.Println("bids:")
		for _, lvl := range resp.Bids {
			fmt.Printf("  %s @ %s\n", lvl.Quantity, lvl.Price)
		}
		fmt.Println("asks:")
		for _, lvl := range resp.Asks {
			fmt.Printf("  %s @ %s\n", lvl.Quantity, lvl.Price)
		}
	}
}
