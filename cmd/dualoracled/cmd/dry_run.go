package cmd

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paw-chain/dualoracle/x/dualoracle/keeper"
	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

const flagWarmup = "warmup"

// dryRunOutput is the JSON form of a dry-run result.
type dryRunOutput struct {
	Asset        string `json:"asset"`
	Status       string `json:"status"`
	Price        string `json:"price"`
	Level        string `json:"level"`
	Amplitude    uint64 `json:"amplitude_bp"`
	SingleSource bool   `json:"single_source"`
}

func newDryRunOutput(res types.CycleResult) dryRunOutput {
	price := "0"
	if !res.Price.IsNil() {
		price = res.Price.String()
	}
	return dryRunOutput{
		Asset:        res.AssetID,
		Status:       res.Status.String(),
		Price:        price,
		Level:        res.Level.String(),
		Amplitude:    res.Amplitude,
		SingleSource: res.SingleSource,
	}
}

// DryRunCmd evaluates feeds against live sources without writing any state.
func DryRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dry-run [asset...]",
		Short: "Evaluate feeds against the live sources without committing anything",
		Long: `Evaluate feeds against the live sources without committing anything.
With no arguments every feed is evaluated. The stream subscription is given
--warmup to receive its first quotes before the evaluation runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			warmup, err := cmd.Flags().GetDuration(flagWarmup)
			if err != nil {
				return err
			}

			n, err := openNode(cfg, logger)
			if err != nil {
				return err
			}
			defer n.Close()

			sdkCtx := n.context(time.Now())
			assets := args
			if len(assets) == 0 {
				feeds, err := n.keeper.GetAllFeeds(sdkCtx)
				if err != nil {
					return err
				}
				for _, feed := range feeds {
					assets = append(assets, feed.AssetID)
				}
			}

			pairs, err := streamPairs(sdkCtx, n.keeper)
			if err != nil {
				return err
			}
			set, err := buildSources(cfg, pairs, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			if set.stream != nil {
				go func() { _ = set.stream.Run(ctx) }()
				select {
				case <-time.After(warmup):
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			sdkCtx = n.context(time.Now()).WithContext(ctx)
			clock := keeper.BlockClock(sdkCtx)
			out := make([]dryRunOutput, 0, len(assets))
			for _, asset := range assets {
				res := n.keeper.DryRunValidate(sdkCtx, clock, set.Handles(), asset)
				out = append(out, newDryRunOutput(res))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().Duration(flagWarmup, 3*time.Second, "time to collect stream quotes before evaluating")
	return cmd
}
