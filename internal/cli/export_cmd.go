package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ExportCmd returns the export command.
func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a month's weekly report as CSV",
		Long: `Fetch the CSV export for one municipality and month. The file is
written to --out, or to stdout when --out is omitted.`,
		RunE: runExport,
	}

	cmd.Flags().String("month", "", "Month name, e.g. January")
	cmd.Flags().String("year", "", "Four-digit year")
	cmd.Flags().String("municipality", "", "Municipality name")
	cmd.Flags().String("out", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("municipality")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	client, err := clientFromFlags(cmd)
	if err != nil {
		return err
	}
	month, _ := cmd.Flags().GetString("month")
	year, _ := cmd.Flags().GetString("year")
	municipality, _ := cmd.Flags().GetString("municipality")
	out, _ := cmd.Flags().GetString("out")

	q := url.Values{}
	q.Set("month", month)
	q.Set("year", year)
	q.Set("municipality", municipality)

	resp, err := client.do(http.MethodGet, "/api/v1/reports/export?"+q.Encode(), nil, "")
	if err != nil {
		return fmt.Errorf("export request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	if out == "" {
		_, err = io.Copy(os.Stdout, resp.Body)
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("%s %s (%d bytes)\n", color.New(color.FgGreen).Sprint("Wrote"), out, n)
	return nil
}
