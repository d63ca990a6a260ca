package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexabiz/orderres/multitenant"
	"github.com/nexabiz/orderres/purchaseorder"
	"github.com/nexabiz/orderres/resolution"
)

type resolveOutput struct {
	Lines        []resolution.ResolvedOrderLine `json:"lines"`
	Summary      string                         `json:"summary"`
	Explanations []resolution.Explanation       `json:"explanations,omitempty"`
}

type matchOutput struct {
	Matched     bool    `json:"matched"`
	ProductName string  `json:"product_name,omitempty"`
	Phrase      string  `json:"phrase,omitempty"`
	Score       float64 `json:"score"`
}

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the products and quantities in a message",
		Long: `Resolve an order message against a catalog and print the resolved lines as JSON.

Examples:
  orderres resolve --catalog catalog.json --message "10 Blue Jeans and 5 Red Shirts"
  orderres resolve --catalog catalog.json --message-file order.txt --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath, _ := cmd.Flags().GetString("catalog")
			message, _ := cmd.Flags().GetString("message")
			messageFile, _ := cmd.Flags().GetString("message-file")
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			explain, _ := cmd.Flags().GetBool("explain")

			catalog, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}

			if messageFile != "" {
				if message != "" {
					return fmt.Errorf("use either --message or --message-file, not both")
				}
				data, err := os.ReadFile(messageFile)
				if err != nil {
					return fmt.Errorf("failed to read message file: %w", err)
				}
				message = string(data)
			}
			if err := multitenant.ValidateMessage(message, multitenant.DefaultMaxMessageBytes); err != nil {
				return err
			}

			resolver, err := newResolver(threshold)
			if err != nil {
				return err
			}

			lines := resolver.Resolve(message, catalog)
			out := resolveOutput{Lines: lines, Summary: resolution.Render(lines)}
			if explain {
				out.Explanations = resolver.Explain(message, catalog)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().String("catalog", "", "Path to the catalog JSON file")
	cmd.Flags().String("message", "", "Order message text")
	cmd.Flags().String("message-file", "", "Read the order message from a file")
	cmd.Flags().Float64("threshold", resolution.SuggestionThreshold, "Fuzzy score a product reference must exceed")
	cmd.Flags().Bool("explain", false, "Include every candidate found per product")
	cmd.MarkFlagRequired("catalog")

	return cmd
}

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <phrase>",
		Short: "Find the catalog product a phrase names",
		Long: `Fuzzy-match a single phrase against a catalog. The best score is reported
even when it does not beat the threshold.

Example:
  orderres match --catalog catalog.json --threshold 80 "blu jeans"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath, _ := cmd.Flags().GetString("catalog")
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			catalog, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			resolver, err := newResolver(threshold)
			if err != nil {
				return err
			}

			phrase := strings.Join(args, " ")
			best, found := resolver.MatchProduct(phrase, catalog, -1)

			out := matchOutput{}
			if found {
				out.Score = best.Score
				out.Phrase = best.Phrase
				if best.Score > threshold {
					out.Matched = true
					out.ProductName = best.Entry.CanonicalName
				}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().String("catalog", "", "Path to the catalog JSON file")
	cmd.Flags().Float64("threshold", resolution.SuggestionThreshold, "Score the match must exceed")
	cmd.MarkFlagRequired("catalog")

	return cmd
}

func poCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "po",
		Short: "Build an order from the text of a purchase order",
		Long: `Parse the extracted text of a purchase order, one line per row, into a
supplier and product lines.

Rows look like "Blue Jeans - 10" or "10 boxes of Blue Jeans".

Example:
  orderres po --catalog catalog.json --file extracted.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath, _ := cmd.Flags().GetString("catalog")
			file, _ := cmd.Flags().GetString("file")
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			catalog, err := loadCatalog(catalogPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read purchase order: %w", err)
			}
			resolver, err := newResolver(threshold)
			if err != nil {
				return err
			}

			order := purchaseorder.NewParser(resolver, threshold).Build(string(data), catalog)
			return writeJSON(cmd.OutOrStdout(), order)
		},
	}

	cmd.Flags().String("catalog", "", "Path to the catalog JSON file")
	cmd.Flags().String("file", "", "Path to the extracted purchase order text")
	cmd.Flags().Float64("threshold", resolution.AuthoritativeThreshold, "Score a product name must exceed")
	cmd.MarkFlagRequired("catalog")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newResolver(threshold float64) (*resolution.Resolver, error) {
	opts := resolution.DefaultOptions()
	opts.FuzzyThreshold = threshold
	return resolution.NewResolver(opts)
}

// loadCatalog reads product names from a JSON list of strings or of
// {"product_name": ...} objects
func loadCatalog(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		var items []struct {
			ProductName string `json:"product_name"`
		}
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("catalog %s is neither a list of names nor a list of products: %w", path, err)
		}
		names = make([]string, 0, len(items))
		for _, item := range items {
			names = append(names, item.ProductName)
		}
	}

	if err := multitenant.ValidateCatalog(names, multitenant.DefaultMaxCatalogSize); err != nil {
		return nil, err
	}
	return names, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
