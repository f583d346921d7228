package main

import (
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"ai-buildguide-be/internal/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [barcode]",
	Short: "Resolve a barcode (or the scanned one) into a project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runResolve,
}

var barcodeCmd = &cobra.Command{
	Use:   "barcode",
	Short: "Show the currently scanned barcode",
	RunE:  runBarcode,
}

var scanCmd = &cobra.Command{
	Use:   "scan [barcode]",
	Short: "Publish a barcode_scanned event",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the resolution cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [barcode]",
	Short: "Drop one barcode, or every barcode, from the cache",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var resolveCommand string

func init() {
	resolveCmd.Flags().StringVar(&resolveCommand, "command", "", "Spoken command passed to the query composer")
	cacheCmd.AddCommand(cacheClearCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	req := dto.ResolveRequest{Command: resolveCommand}
	if len(args) == 1 {
		req.Barcode = args[0]
	}

	color.Yellow("Resolving %s...", orScanned(req.Barcode))
	res, err := call[dto.ResolveResponse]("POST", "/resolve", req)
	if err != nil {
		color.Red("Failed: %v", err)
		return err
	}

	p := res.Project
	color.Green("%s (%s, %d steps)", p.Name, p.Source, p.TotalSteps)
	if p.ManualURL != "" {
		fmt.Printf("Manual: %s\n", p.ManualURL)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tTITLE\tDETAILS")
	for _, s := range p.Steps {
		fmt.Fprintf(w, "%d\t%s\t%d\n", s.Step, s.Title, len(s.Details))
	}
	return w.Flush()
}

func runBarcode(cmd *cobra.Command, args []string) error {
	res, err := call[dto.BarcodeResponse]("GET", "/barcode", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		return err
	}
	if !res.Known {
		color.Yellow("No barcode scanned")
		return nil
	}
	fmt.Printf("%s (seen %.0fs ago)\n", res.Barcode, res.AgeSeconds)
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	if _, err := call[any]("POST", "/debug/scan", map[string]string{"barcode": args[0]}); err != nil {
		color.Red("Failed: %v", err)
		return err
	}
	color.Green("Published scan of %s", args[0])
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	path := "/resolve/cache"
	if len(args) == 1 {
		path += "?barcode=" + url.QueryEscape(args[0])
	}
	if _, err := call[any]("DELETE", path, nil); err != nil {
		color.Red("Failed: %v", err)
		return err
	}
	color.Green("Cache cleared")
	return nil
}

func orScanned(barcode string) string {
	if barcode == "" {
		return "the scanned barcode"
	}
	return barcode
}
