package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stormplot/internal/miner"
	"stormplot/internal/spec"
)

var mineFlags struct {
	out string
}

var mineCmd = &cobra.Command{
	Use:   "mine <notebook.ipynb|script.py>",
	Short: "Derive a figure spec from notebook plotting code",
	Args:  cobra.ExactArgs(1),
	RunE:  runMine,
}

func init() {
	mineCmd.Flags().StringVarP(&mineFlags.out, "out", "o", "", "Spec JSON output path (default stdout)")
}

func runMine(cmd *cobra.Command, args []string) error {
	figures, err := miner.MineFile(args[0])
	if err != nil {
		return err
	}
	data, err := spec.Marshal(figures)
	if err != nil {
		return err
	}

	if mineFlags.out == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(mineFlags.out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(mineFlags.out, data, 0644); err != nil {
		return fmt.Errorf("failed to write spec: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d figure specs to %s\n", len(figures), mineFlags.out)
	return nil
}
