package cli

import (
	"github.com/spf13/cobra"

	"github.com/ninejamarkets/market-cli/internal/domain"
	"github.com/ninejamarkets/market-cli/internal/service/output"
)

type directoryRow struct {
	ID    string
	Name  string
	City  string
	State string
}

func newMarketsCommand(deps Dependencies) *cobra.Command {
	return newDirectoryCommand(deps, "markets", "List markets a merchant can be affiliated with.", "Markets",
		func(cmd *cobra.Command, sess authSession) ([]directoryRow, error) {
			markets, err := sess.API.Markets(cmd.Context())
			if err != nil {
				return nil, err
			}
			rows := make([]directoryRow, 0, len(markets))
			for _, market := range markets {
				rows = append(rows, directoryRow{ID: market.ID, Name: market.Name, City: market.City, State: market.State})
			}
			return rows, nil
		})
}

func newMallsCommand(deps Dependencies) *cobra.Command {
	return newDirectoryCommand(deps, "malls", "List malls a merchant can be affiliated with.", "Malls",
		func(cmd *cobra.Command, sess authSession) ([]directoryRow, error) {
			malls, err := sess.API.Malls(cmd.Context())
			if err != nil {
				return nil, err
			}
			rows := make([]directoryRow, 0, len(malls))
			for _, mall := range malls {
				rows = append(rows, directoryRow{ID: mall.ID, Name: mall.Name, City: mall.City, State: mall.State})
			}
			return rows, nil
		})
}

func newDirectoryCommand(
	deps Dependencies,
	use string,
	short string,
	title string,
	list func(cmd *cobra.Command, sess authSession) ([]directoryRow, error),
) *cobra.Command {
	var flags globalFlags
	var limit int
	var offset int
	var page int

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(flags.Format)
			if err != nil {
				return err
			}
			window, err := newPageWindow(
				limit, cmd.Flags().Changed("limit"),
				offset, cmd.Flags().Changed("offset"),
				page, cmd.Flags().Changed("page"),
			)
			if err != nil {
				return err
			}
			sess := resolveSession(cmd, deps, flags)
			if err := requireAPI(cmd, format, sess, flags); err != nil {
				return err
			}
			rows, err := list(cmd, sess)
			if err != nil {
				return emitSessionError(cmd, format, sess, flags, err)
			}

			items := make([]any, 0, len(rows))
			for _, row := range rows {
				items = append(items, map[string]any{
					"id":    row.ID,
					"name":  row.Name,
					"city":  row.City,
					"state": row.State,
				})
			}
			data := map[string]any{"items": items}
			window.apply(data, "items")

			return writeResult(cmd, format, sess, flags.Output, data, func(data map[string]any) string {
				return buildDirectoryTable(title, data)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows to show.")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of rows to skip.")
	cmd.Flags().IntVar(&page, "page", 0, "1-based page number; requires --limit.")
	addGlobalFlags(cmd, &flags)
	return cmd
}

func buildDirectoryTable(title string, data map[string]any) string {
	rows := make([][]string, 0)
	for _, value := range asSlice(data["items"]) {
		row := asMap(value)
		rows = append(rows, []string{
			fallbackString(asString(row["name"]), "-"),
			fallbackString(asString(row["city"]), "-"),
			fallbackString(asString(row["state"]), "-"),
			domain.NormalizeID(row["id"]),
		})
	}
	table := output.RenderTable(title, []string{"Name", "City", "State", "ID"}, rows)
	if next, ok := data["next_offset"]; ok {
		table += "\nMore rows available: --offset " + asString(next)
	}
	return table
}
