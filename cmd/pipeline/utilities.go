package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"investor_intel/pkg/core/chunking"
	"investor_intel/pkg/core/currency"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <amount>...",
	Short: "Convert funding strings such as \"€1.2M\" to USD",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, raw := range args {
			if usd := currency.NormalizeAmount(raw); usd != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.2f\n", raw, *usd)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t-\n", raw)
			}
		}
		return nil
	},
}

var chunkCmd = &cobra.Command{
	Use:   "chunk <markdown-file>",
	Short: "Split a markdown file on headings and print the pieces",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		docID, _ := cmd.Flags().GetString("document-id")
		return printJSON(cmd, chunking.Document(docID, string(data)))
	},
}

func init() {
	chunkCmd.Flags().String("document-id", "document", "document id used for piece ids")
}
