package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"stock-ledger/internal/config"
	"stock-ledger/internal/core"
	"stock-ledger/internal/db"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.ParseEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	items := core.NewStockItemService(pool, logger)
	locations := core.NewStockLocationService(pool)
	catalog := core.NewCatalogService(pool)
	transfers := core.NewStockTransferService(pool, items, catalog, logger)
	summaries := core.NewStockSummaryService(pool, logger)
	planner := core.NewFulfillmentPlanner(pool, locations, nil, logger)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "levels":
		levels, err := items.GetStockLevels(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch stock levels: %v", err)
		}
		for _, sl := range levels {
			fmt.Printf("%-20s %-10s on_hand=%-5d reserved=%-5d available=%-5d cost=%s\n",
				sl.SKU, sl.LocationCode, sl.OnHand, sl.Reserved, sl.Available, sl.UnitCost.StringFixed(2))
		}

	case "locations":
		all, err := locations.List(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch locations: %v", err)
		}
		printJSON(all)

	case "create-item":
		args := need(4, "create-item <variant-id> <location-id> <sku> <qty> [unit-cost]")
		cost := decimal.Zero
		if len(args) > 4 {
			cost = mustDecimal(args[4])
		}
		item, err := items.Create(ctx, mustUUID(args[0]), mustUUID(args[1]), args[2], mustInt(args[3]), cost)
		if err != nil {
			log.Fatalf("Create failed: %v", err)
		}
		printJSON(item)

	case "adjust":
		args := need(2, "adjust <stock-item-id> <delta> [reason]")
		reason := "Manual adjustment"
		if len(args) > 2 {
			reason = args[2]
		}
		if err := items.AdjustStock(ctx, mustUUID(args[0]), mustInt(args[1]), core.MovementAdjustment, decimal.Zero, reason, ""); err != nil {
			log.Fatalf("Adjust failed: %v", err)
		}

	case "reserve":
		args := need(3, "reserve <stock-item-id> <qty> <order-id>")
		if err := items.Reserve(ctx, mustUUID(args[0]), mustInt(args[1]), mustUUID(args[2]), uuid.New()); err != nil {
			log.Fatalf("Reserve failed: %v", err)
		}

	case "release":
		args := need(3, "release <stock-item-id> <qty> <order-id>")
		if err := items.Release(ctx, mustUUID(args[0]), mustInt(args[1]), mustUUID(args[2])); err != nil {
			log.Fatalf("Release failed: %v", err)
		}

	case "release-order":
		args := need(1, "release-order <order-id>")
		if err := items.ReleaseOrder(ctx, mustUUID(args[0])); err != nil {
			log.Fatalf("Release failed: %v", err)
		}

	case "fulfill":
		args := need(2, "fulfill <stock-item-id> <qty> [reference]")
		reference := ""
		if len(args) > 2 {
			reference = args[2]
		}
		if err := items.Fulfill(ctx, mustUUID(args[0]), mustInt(args[1]), uuid.New(), reference); err != nil {
			log.Fatalf("Fulfill failed: %v", err)
		}

	case "movements":
		args := need(1, "movements <stock-item-id>")
		history, err := items.Movements(ctx, mustUUID(args[0]))
		if err != nil {
			log.Fatalf("Failed to fetch movements: %v", err)
		}
		printJSON(history)

	case "plan":
		args := need(1, "plan <variant-id>:<qty> [...]")
		requested := make(map[uuid.UUID]int, len(args))
		for _, pair := range args {
			id, qty := mustPair(pair)
			requested[id] = qty
		}
		plan, err := planner.Plan(ctx, requested, core.PlanScope{}, nil)
		if err != nil {
			log.Fatalf("Plan failed: %v", err)
		}
		printJSON(plan)

	case "summary":
		args := need(1, "summary <variant-id>")
		sum, err := summaries.Rebuild(ctx, mustUUID(args[0]))
		if err != nil {
			log.Fatalf("Summary rebuild failed: %v", err)
		}
		printJSON(sum)

	case "transfer-create":
		args := need(3, "transfer-create <source-id> <dest-id> <variant-id>:<qty> [...]")
		var lines []core.TransferItemInput
		for _, pair := range args[2:] {
			id, qty := mustPair(pair)
			lines = append(lines, core.TransferItemInput{VariantID: id, Quantity: qty})
		}
		transfer, err := transfers.Create(ctx, mustUUID(args[0]), mustUUID(args[1]), "", "", lines)
		if err != nil {
			log.Fatalf("Transfer creation failed: %v", err)
		}
		printJSON(transfer)

	case "transfer-ship":
		args := need(1, "transfer-ship <transfer-id>")
		if err := transfers.Ship(ctx, mustUUID(args[0])); err != nil {
			log.Fatalf("Transfer ship failed: %v", err)
		}

	case "transfer-receive":
		args := need(1, "transfer-receive <transfer-id>")
		if err := transfers.Receive(ctx, mustUUID(args[0])); err != nil {
			log.Fatalf("Transfer receive failed: %v", err)
		}

	case "transfer-cancel":
		args := need(1, "transfer-cancel <transfer-id>")
		if err := transfers.Cancel(ctx, mustUUID(args[0])); err != nil {
			log.Fatalf("Transfer cancel failed: %v", err)
		}

	default:
		usage()
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return cfg.Build()
}

func usage() {
	fmt.Println(`Usage: app <command> [args]

Commands:
  levels                                                 show stock per item and location
  locations                                              list stock locations
  create-item <variant-id> <location-id> <sku> <qty> [unit-cost]
  adjust <stock-item-id> <delta> [reason]
  reserve <stock-item-id> <qty> <order-id>
  release <stock-item-id> <qty> <order-id>
  release-order <order-id>
  fulfill <stock-item-id> <qty> [reference]
  movements <stock-item-id>
  plan <variant-id>:<qty> [...]
  summary <variant-id>
  transfer-create <source-id> <dest-id> <variant-id>:<qty> [...]
  transfer-ship | transfer-receive | transfer-cancel <transfer-id>`)
	os.Exit(1)
}

// need returns the command arguments, exiting with usage help when fewer than
// min are present.
func need(min int, help string) []string {
	args := os.Args[2:]
	if len(args) < min {
		log.Fatalf("Usage: app %s", help)
	}
	return args
}

func mustUUID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		log.Fatalf("Invalid id %q: %v", s, err)
	}
	return id
}

func mustInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("Invalid number %q: %v", s, err)
	}
	return n
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("Invalid amount %q: %v", s, err)
	}
	return d
}

func mustPair(s string) (uuid.UUID, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		log.Fatalf("Invalid item %q: want <variant-id>:<qty>", s)
	}
	return mustUUID(parts[0]), mustInt(parts[1])
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
