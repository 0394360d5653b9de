// Command-line client for tradeflow-server.
//
// Usage:
//
//	tradeflow-cli [-server URL] [-principal NAME] <command> [flags]
//
// Commands: place, smart, cancel, cancel-all, squareoff, positions, orders
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"tradeflow/pkg/tradeflow"
)

func main() {
	godotenv.Load()

	server := flag.String("server", envOr("TRADEFLOW_SERVER", "http://localhost:8080"), "server base URL")
	principal := flag.String("principal", os.Getenv("TRADEFLOW_PRINCIPAL"), "acting principal")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	client := tradeflow.NewClient(*server, *principal)
	ctx := context.Background()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "place":
		runPlace(ctx, client, args)
	case "smart":
		runSmart(ctx, client, args)
	case "cancel":
		if len(args) != 1 {
			log.Fatal("usage: cancel ORDER_ID")
		}
		if err := client.CancelOrder(ctx, args[0]); err != nil {
			log.Fatalf("cancel: %v", err)
		}
		fmt.Println("cancelled", args[0])
	case "cancel-all":
		if err := client.CancelAll(ctx); err != nil {
			log.Fatalf("cancel-all: %v", err)
		}
		fmt.Println("cancel-all submitted")
	case "squareoff":
		if err := client.SquareoffAll(ctx); err != nil {
			log.Fatalf("squareoff: %v", err)
		}
		fmt.Println("squareoff submitted")
	case "positions":
		runPositions(ctx, client)
	case "orders":
		runOrders(ctx, client)
	default:
		log.Fatalf("unknown command %q", cmd)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func runPlace(ctx context.Context, client *tradeflow.Client, args []string) {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	symbol := fs.String("symbol", "", "trading symbol (required)")
	exchange := fs.String("exchange", "NSE", "exchange")
	side := fs.String("side", "", "BUY or SELL (required)")
	qty := fs.Int64("qty", 0, "quantity (required)")
	orderType := fs.String("type", "", "MARKET, LIMIT, SL, SL-M")
	product := fs.String("product", "", "MIS, CNC, NRML")
	price := fs.String("price", "", "limit price")
	trigger := fs.String("trigger", "", "trigger price")
	strategy := fs.String("strategy", "", "strategy tag")
	fs.Parse(args)

	order := tradeflow.Order{
		Symbol:    *symbol,
		Exchange:  *exchange,
		Side:      *side,
		Quantity:  *qty,
		OrderType: *orderType,
		Product:   *product,
		Strategy:  *strategy,
	}
	if *price != "" {
		order.Price = mustDecimal(*price)
	}
	if *trigger != "" {
		order.TriggerPrice = mustDecimal(*trigger)
	}

	out, err := client.PlaceOrder(ctx, order)
	if err != nil {
		log.Fatalf("place: %v", err)
	}
	fmt.Printf("submitted=%v order_id=%s %s\n", out.Submitted, out.OrderID, out.Message)
}

func runSmart(ctx context.Context, client *tradeflow.Client, args []string) {
	fs := flag.NewFlagSet("smart", flag.ExitOnError)
	symbol := fs.String("symbol", "", "trading symbol (required)")
	exchange := fs.String("exchange", "NSE", "exchange")
	product := fs.String("product", "MIS", "MIS, CNC, NRML")
	size := fs.Int64("size", 0, "desired net position size (signed)")
	strategy := fs.String("strategy", "", "strategy tag")
	fs.Parse(args)

	out, err := client.PlaceSmartOrder(ctx, tradeflow.SmartOrder{
		Symbol:      *symbol,
		Exchange:    *exchange,
		Product:     *product,
		DesiredSize: *size,
		Strategy:    *strategy,
	})
	if err != nil {
		log.Fatalf("smart: %v", err)
	}
	fmt.Printf("submitted=%v order_id=%s %s\n", out.Submitted, out.OrderID, out.Message)
}

func runPositions(ctx context.Context, client *tradeflow.Client) {
	positions, err := client.Positions(ctx)
	if err != nil {
		log.Fatalf("positions: %v", err)
	}
	if len(positions) == 0 {
		fmt.Println("no open positions")
		return
	}
	for _, p := range positions {
		fmt.Printf("%-16s %-4s %-12s net=%s avg=%s\n",
			p.Symbol, p.Exchange, p.Product, p.NetQty, p.AvgPrice)
	}
}

func runOrders(ctx context.Context, client *tradeflow.Client) {
	orders, err := client.OrderBook(ctx)
	if err != nil {
		log.Fatalf("orders: %v", err)
	}
	if len(orders) == 0 {
		fmt.Println("no orders today")
		return
	}
	for _, o := range orders {
		fmt.Printf("%-14s %-16s %-8s %-15s qty=%s price=%s\n",
			o.OrderID, o.Symbol, o.OrderType, o.Status, o.Quantity, o.Price)
	}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}
