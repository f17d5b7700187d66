package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	domain "github.com/subszero0/mandimonitor/pkg/types"
)

var (
	watchUserID   string
	watchASIN     string
	watchMaxPrice int
)

var watchCmd = &cobra.Command{
	Use:   "watch [keywords]",
	Short: "Create a watch and run one evaluation cycle against it",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchUserID, "user", "local", "owning user ID")
	watchCmd.Flags().StringVar(&watchASIN, "asin", "", "ASIN to track (required)")
	watchCmd.Flags().IntVar(&watchMaxPrice, "max-price", 0, "maximum price in rupees")
}

func runWatch(_ *cobra.Command, args []string) error {
	if watchASIN == "" {
		return fmt.Errorf("--asin is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)
	adapter := buildAdapter(cfg, log)
	stores := buildWatchStores()
	evaluator := buildEvaluator(cfg, adapter, stores, log)

	w := domain.Watch{
		ID:           fmt.Sprintf("cli-%d", time.Now().UnixNano()),
		UserID:       watchUserID,
		Keywords:     args[0],
		SelectedASIN: &watchASIN,
		State:        domain.WatchActive,
		CreatedAt:    time.Now(),
	}
	if watchMaxPrice > 0 {
		w.MaxPriceRupees = &watchMaxPrice
	}
	stores.watches.Put(w)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	priceChanged, alert, err := evaluator.EvaluateWatch(ctx, w.ID)
	if err != nil {
		return fmt.Errorf("evaluating watch: %w", err)
	}

	out, err := json.MarshalIndent(map[string]any{
		"price_changed": priceChanged,
		"alert":         alert,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
