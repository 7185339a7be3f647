package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/wise004/Edupress-sub001/services/catalog/internal/domain"
	"github.com/wise004/Edupress-sub001/services/catalog/internal/listing"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var (
		params = listing.DefaultParams()
		price  string
		sortBy string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of the filtered course listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch listing.PriceTier(price) {
			case listing.TierAll, listing.TierFree, listing.TierPaid:
				params.Price = listing.PriceTier(price)
			default:
				return fmt.Errorf("--price must be all, free or paid, got %q", price)
			}
			params.Sort = listing.ParseSortKey(sortBy)
			params.PageSize = root.pageSize

			catalog, err := root.newCatalog(cmd)
			if err != nil {
				return err
			}
			res := catalog.ListCourses(cmd.Context(), params)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res.Pagination())
			}
			writeCourses(cmd.OutOrStdout(), res)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&params.Search, "search", "", "search term matched against title, description and instructor")
	flags.StringVar(&params.Category, "category", listing.All, "category label, or all")
	flags.StringVar(&params.Level, "level", listing.All, "Beginner, Intermediate, Advanced, or all")
	flags.StringVar(&price, "price", string(listing.TierAll), "all, free or paid")
	flags.StringVar(&sortBy, "sort", string(listing.SortPopular), "popular, newest, price-low, price-high or rating")
	flags.IntVar(&params.Page, "page", 1, "page number, clamped into range")
	flags.BoolVar(&asJSON, "json", false, "print the paginated JSON envelope")
	return cmd
}

func newCategoriesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with their course counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := root.newCatalog(cmd)
			if err != nil {
				return err
			}

			var rows [][]string
			for _, c := range catalog.ListCategories(cmd.Context()) {
				rows = append(rows, []string{c.Name, strconv.Itoa(c.CourseCount)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.title.Render("Categories"))
			fmt.Fprintln(out, renderTable([]string{"NAME", "COURSES"}, rows))
			return nil
		},
	}
}

func writeCourses(w io.Writer, res listing.Result) {
	if res.Total == 0 {
		fmt.Fprintln(w, styles.muted.Render("No courses match the current filters."))
		return
	}

	rows := make([][]string, 0, len(res.Items))
	for _, c := range res.Items {
		rows = append(rows, []string{c.ID, c.Title, c.Category, string(c.Level), formatPrice(c), fmt.Sprintf("%.1f", c.Rating)})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "TITLE", "CATEGORY", "LEVEL", "PRICE", "RATING"}, rows))
	fmt.Fprintln(w, styles.muted.Render(pageSummary(res)))
}

func pageSummary(res listing.Result) string {
	return fmt.Sprintf("page %d of %d, %d courses", res.Page, max(res.TotalPages, 1), res.Total)
}

func formatPrice(c domain.Course) string {
	if c.IsFree {
		return "Free"
	}
	s := fmt.Sprintf("$%.2f", c.Price)
	if pct := c.DiscountPercent(); pct > 0 {
		s += fmt.Sprintf(" (-%d%%)", pct)
	}
	return s
}

// renderTable lays rows out under a header rule, without outer borders.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderStyle(styles.muted).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.header
			}
			return styles.cell
		}).
		Headers(headers...).
		Rows(rows...).
		Render()
}
