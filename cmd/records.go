package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/minecom/minedash/internal/records"
	"github.com/minecom/minedash/internal/strapi"
	"github.com/minecom/minedash/internal/table"
	"github.com/spf13/cobra"
)

var recordsCmdFlags struct {
	Identifier string
	Password   string
	Token      string
	Filter     string
	OrderBy    string
	Order      string
	Page       int
	PageSize   int
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Print the reconciled bank records",
	Long:  `Fetch users and transaction forms from Strapi and print the bank-record table the dashboard shows.`,
	Example: `minedash records --identifier admin --password secret
minedash records --token $JWT --filter alice --order-by balance --order desc`,
	RunE: printRecords,
}

func init() {
	f := recordsCmd.Flags()
	f.StringVar(&recordsCmdFlags.Identifier, "identifier", "", "Username or email to sign in with")
	f.StringVar(&recordsCmdFlags.Password, "password", "", "Password to sign in with")
	f.StringVar(&recordsCmdFlags.Token, "token", "", "Use an existing token instead of signing in")
	f.StringVar(&recordsCmdFlags.Filter, "filter", "", "Only show rows whose username contains this text")
	f.StringVar(&recordsCmdFlags.OrderBy, "order-by", "", "Field to sort by (default from config)")
	f.StringVar(&recordsCmdFlags.Order, "order", "asc", "Sort direction (asc, desc)")
	f.IntVar(&recordsCmdFlags.Page, "page", 0, "Page to print, starting at 0")
	f.IntVar(&recordsCmdFlags.PageSize, "page-size", 0, "Rows per page (default from config)")
	recordsCmd.MarkFlagsRequiredTogether("identifier", "password")
	recordsCmd.MarkFlagsOneRequired("identifier", "token")
	recordsCmd.MarkFlagsMutuallyExclusive("identifier", "token")

	rootCmd.AddCommand(recordsCmd)
}

func printRecords(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	token := recordsCmdFlags.Token
	client := strapi.New(cfg.Strapi, strapi.WithTokenSource(func(context.Context) string { return token }))
	if token == "" {
		resp, err := client.SignIn(ctx, strapi.Credentials{
			Identifier: recordsCmdFlags.Identifier,
			Password:   recordsCmdFlags.Password,
		})
		if err != nil {
			return fmt.Errorf("failed to sign in: %w", err)
		}
		token = resp.JWT
	}

	defaults := records.Defaults{
		FilterField:     cfg.Table.DefaultFilterField,
		OrderBy:         cfg.Table.DefaultOrderBy,
		PageSize:        cfg.Table.DefaultPageSize,
		PageSizeOptions: cfg.Table.PageSizeOptions,
	}
	if recordsCmdFlags.PageSize > 0 {
		defaults.PageSize = recordsCmdFlags.PageSize
		defaults.PageSizeOptions = slices.Concat(defaults.PageSizeOptions, []int{recordsCmdFlags.PageSize})
	}

	view := records.NewView(defaults)
	if err := view.Load(ctx, client); err != nil {
		return fmt.Errorf("failed to load bank records: %w", err)
	}
	q := table.Query{
		Filter:   recordsCmdFlags.Filter,
		OrderBy:  recordsCmdFlags.OrderBy,
		Order:    table.ParseOrder(recordsCmdFlags.Order),
		Page:     recordsCmdFlags.Page,
		PageSize: defaults.PageSize,
	}
	view.SetFilter(recordsCmdFlags.Filter)
	page := view.Page(q)

	if page.NoDeposits {
		fmt.Println("No deposits found.")
		return nil
	}
	if page.NotFound {
		fmt.Printf("No rows match %q.\n", recordsCmdFlags.Filter)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tRECOMMENDER\tBALANCE\tDEPOSIT\tDATE\tIBAN\tACCOUNT HOLDER")
	for _, r := range page.Rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.UserID, r.Username, r.Email, r.RecommenderID,
			r.Balance.StringFixed(2), r.DepositAmount.StringFixed(2), r.DepositDate,
			r.IBAN, r.AccountHolder)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nPage %d, %d of %d rows\n", page.Page, len(page.Rows), page.Filtered)
	return nil
}
