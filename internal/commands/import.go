package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/service"
	"github.com/dafibh/fintrack/fintrack-backend/internal/spreadsheet"
)

func newImportCommand(backend Backend) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import transactions from an .xlsx, .xls or .json file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := uuid.Parse(owner)
			if err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			services, err := backend.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer services.Close()

			var result *domain.ImportResult
			if strings.EqualFold(filepath.Ext(path), ".json") {
				records, err := decodeJSONRecords(data)
				if err != nil {
					return err
				}
				result, err = services.Import.ImportRecords(cmd.Context(), ownerID, records)
				if err != nil {
					if result != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Imported %d before failure\n", result.Imported)
					}
					return err
				}
			} else {
				contentType := spreadsheet.ContentTypeForFilename(path)
				if contentType == "" {
					return domain.ErrUnsupportedSpreadsheet
				}
				result, err = services.Import.ImportSpreadsheet(cmd.Context(), ownerID, filepath.Base(path), contentType, data)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d, skipped %d\n", result.Imported, len(result.Skipped))
			for _, s := range result.Skipped {
				fmt.Fprintf(out, "  row %d: %s\n", s.Row, s.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func decodeJSONRecords(data []byte) ([]service.StructuredRecord, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	records := make([]service.StructuredRecord, len(raw))
	for i, fields := range raw {
		var comment *string
		if c, ok := fields["comment"]; ok {
			if err := json.Unmarshal(c, &comment); err != nil {
				return nil, fmt.Errorf("decoding record %d: comment must be a string or null", i+1)
			}
		}
		records[i] = service.StructuredRecord{
			Amount:       rawText(fields["amount"]),
			Date:         rawText(fields["date"]),
			Comment:      comment,
			CategoryName: rawText(fields["categoryName"]),
			CategoryType: rawText(fields["categoryType"]),
		}
	}
	return records, nil
}

// rawText returns a JSON string's value or a number's literal text
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
