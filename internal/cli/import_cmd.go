package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ImportCmd returns the import command.
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Bulk-import weekly report rows from a spreadsheet",
		Long: `Upload an xlsx spreadsheet to the server's import endpoint.
The server groups rows into month documents per municipality and
reports per-month results. Rows with unparseable dates are skipped,
not fatal.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("municipality", "", "Default municipality for rows missing one")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	client, err := clientFromFlags(cmd)
	if err != nil {
		return err
	}
	municipality, _ := cmd.Flags().GetString("municipality")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(args[0]))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if municipality != "" {
		_ = mw.WriteField("municipality", municipality)
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := client.do(http.MethodPost, "/api/v1/reports/import", &buf, mw.FormDataContentType())
	if err != nil {
		return fmt.Errorf("import request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var out struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
		Months   []struct {
			Municipality string `json:"municipality"`
			Month        string `json:"month"`
			Year         int    `json:"year"`
			Rows         int    `json:"rows"`
			Saved        bool   `json:"saved"`
			Error        string `json:"error"`
		} `json:"months"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("Imported %d rows, skipped %d\n", out.Imported, out.Skipped)
	for _, m := range out.Months {
		status := color.New(color.FgGreen).Sprint("saved")
		if !m.Saved {
			status = color.New(color.FgRed).Sprint("FAILED")
			if m.Error != "" {
				status += ": " + m.Error
			}
		}
		fmt.Printf("  %s %s %d: %d rows (%s)\n", m.Municipality, m.Month, m.Year, m.Rows, status)
	}
	return nil
}
