package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"goldwatcher/internal/storage"
)

var (
	simulatePrice     string
	simulateThreshold string
	simulateDirection string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Drive one evaluation cycle against a static price",
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := decimal.NewFromString(simulatePrice)
		if err != nil {
			return fmt.Errorf("invalid --price: %w", err)
		}
		threshold, err := decimal.NewFromString(simulateThreshold)
		if err != nil {
			return fmt.Errorf("invalid --threshold: %w", err)
		}

		var direction storage.Direction
		switch simulateDirection {
		case "sell":
			direction = storage.DirectionSellAtOrAbove
		case "buy":
			direction = storage.DirectionBuyAtOrBelow
		default:
			return fmt.Errorf("--direction must be sell or buy")
		}

		return getApp().SimulateAlert(cmd.Context(), price, threshold, direction)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulatePrice, "price", "", "Simulated current price")
	simulateCmd.Flags().StringVar(&simulateThreshold, "threshold", "", "Rule threshold price")
	simulateCmd.Flags().StringVar(&simulateDirection, "direction", "sell", "Rule direction (sell|buy)")
	_ = simulateCmd.MarkFlagRequired("price")
	_ = simulateCmd.MarkFlagRequired("threshold")
}
