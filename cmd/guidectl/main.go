package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "guidectl",
	Short: "guidectl - talk to a running build guide server",
	Long:  `guidectl resolves barcodes into assembly instructions and walks through them step by step against a running build guide server.`,
}

var (
	apiAddr string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://127.0.0.1:3000/api", "API server address")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(barcodeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(walkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
