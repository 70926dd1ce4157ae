package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// PauseCmd halts every update cycle until resumed.
func PauseCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pause [reason]",
		Short: "Pause all update cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, v, func(n *node, actor string) error {
				return n.keeper.Pause(n.context(time.Now()), actor, strings.Join(args, " "))
			})
		},
	}
	cmd.Flags().String(flagActor, "", "admin actor (defaults to the configured authority)")
	return cmd
}

// ResumeCmd re-enables update cycles.
func ResumeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume [reason]",
		Short: "Resume update cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, v, func(n *node, actor string) error {
				return n.keeper.Resume(n.context(time.Now()), actor, strings.Join(args, " "))
			})
		},
	}
	cmd.Flags().String(flagActor, "", "admin actor (defaults to the configured authority)")
	return cmd
}

// runAdmin applies one admin mutation and commits it.
func runAdmin(cmd *cobra.Command, v *viper.Viper, apply func(n *node, actor string) error) error {
	cfg, logger, err := loadRuntime(v, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	actor, err := cmd.Flags().GetString(flagActor)
	if err != nil {
		return err
	}
	if actor == "" {
		actor = cfg.Authority
	}

	n, err := openNode(cfg, logger)
	if err != nil {
		return err
	}
	defer n.Close()

	if err := n.ensureGenesis(); err != nil {
		return err
	}
	if err := apply(n, actor); err != nil {
		return err
	}
	id := n.commit()
	fmt.Fprintf(cmd.OutOrStdout(), "committed version %d\n", id.Version)
	return nil
}
