package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/commissionledger/internal/infrastructure/postgres"
)

const defaultMigrationsPath = "internal/infrastructure/postgres/migrations"

type options struct {
	baseURL string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "commissionledger-cli",
		Short:         "Commission ledger CLI tool",
		Long:          `A command line interface for interacting with the commission ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the commission ledger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(transactionsCmd(opts), reportsCmd(opts), migrateCmd())

	return rootCmd
}

func transactionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Commission transaction operations",
	}

	var fee, listing, selling string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a transaction in the agreement stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"total_service_fee": fee,
				"listing_agent":     listing,
				"selling_agent":     selling,
			}
			return opts.call(cmd, http.MethodPost, "/api/v1/transactions", body)
		},
	}
	createCmd.Flags().StringVar(&fee, "fee", "", "Total service fee")
	createCmd.Flags().StringVar(&listing, "listing-agent", "", "Listing agent name")
	createCmd.Flags().StringVar(&selling, "selling-agent", "", "Selling agent name")
	_ = createCmd.MarkFlagRequired("fee")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, http.MethodGet, "/api/v1/transactions/"+url.PathEscape(args[0]), nil)
		},
	}

	var stage string
	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if stage != "" {
				q.Set("stage", stage)
			}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))
			return opts.call(cmd, http.MethodGet, "/api/v1/transactions?"+q.Encode(), nil)
		},
	}
	listCmd.Flags().StringVar(&stage, "stage", "", "Only transactions in this stage")
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	var earnestMoney string
	advanceCmd := &cobra.Command{
		Use:   "advance <id> <stage>",
		Short: "Move a transaction to its next stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"stage": args[1]}
			if earnestMoney != "" {
				body["earnest_money"] = earnestMoney
			}
			return opts.call(cmd, http.MethodPatch, "/api/v1/transactions/"+url.PathEscape(args[0])+"/stage", body)
		},
	}
	advanceCmd.Flags().StringVar(&earnestMoney, "earnest-money", "", "Earnest money amount, required for earnest_money")

	cmd.AddCommand(createCmd, getCmd, listCmd, advanceCmd)
	return cmd
}

func reportsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Operational reports",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check commission consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report struct {
				Consistent        bool `json:"consistent"`
				TotalTransactions int  `json:"total_transactions"`
				Discrepancies     []struct {
					TransactionID string `json:"transaction_id"`
					Reason        string `json:"reason"`
				} `json:"discrepancies"`
			}
			if err := opts.do(cmd.Context(), http.MethodGet, "/api/v1/reports/consistency", nil, &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checked %d transactions\n", report.TotalTransactions)
			for _, d := range report.Discrepancies {
				fmt.Fprintf(out, "  %s: %s\n", d.TransactionID, truncate(d.Reason, 80))
			}
			if !report.Consistent {
				return fmt.Errorf("consistency check FAILED: %d discrepancies", len(report.Discrepancies))
			}
			fmt.Fprintln(out, "Consistency check PASSED")
			return nil
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func migrateCmd() *cobra.Command {
	var databaseURL, migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", defaultMigrationsPath, "Migrations directory")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return postgres.RunMigrations(databaseURL, migrationsPath, &logger)
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			return postgres.RunMigrationsDown(databaseURL, migrationsPath, &logger)
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

// call sends the request and pretty-prints the JSON response.
func (o *options) call(cmd *cobra.Command, method, path string, body any) error {
	var result any
	if err := o.do(cmd.Context(), method, path, body, &result); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func (o *options) do(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(o.baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(strings.TrimSpace(string(data)), 200))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
