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
	searchMaxPrice int
	searchMinPrice int
	searchUserID   string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run the selection pipeline once and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchMaxPrice, "max-price", 0, "maximum price in rupees")
	searchCmd.Flags().IntVar(&searchMinPrice, "min-price", 0, "minimum price in rupees")
	searchCmd.Flags().StringVar(&searchUserID, "user", "", "requesting user ID")
}

func runSearch(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := buildLogger(cfg)
	adapter := buildAdapter(cfg, log)
	pl := buildPipeline(cfg, adapter, log)

	query := domain.Query{Text: args[0]}
	if searchMaxPrice > 0 {
		query.Filters.MaxPrice = &searchMaxPrice
	}
	if searchMinPrice > 0 {
		query.Filters.MinPrice = &searchMinPrice
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Selection.Deadline+5*time.Second)
	defer cancel()

	result, err := pl.RunSelection(ctx, query, searchUserID)
	if err != nil {
		return fmt.Errorf("running selection: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
