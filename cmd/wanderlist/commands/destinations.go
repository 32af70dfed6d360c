package commands

import (
	"strconv"

	"github.com/mmcdole/wanderlist/internal/cli/output"
	"github.com/mmcdole/wanderlist/internal/domain"
	"github.com/mmcdole/wanderlist/internal/search"
	"github.com/spf13/cobra"
)

// maxPage is the largest page the API serves
const maxPage = 200

var destinationsCmd = &cobra.Command{
	Use:     "destinations",
	Aliases: []string{"dest"},
	Short:   "Browse the destination catalog",
}

var destParams struct {
	query    string
	category string
	country  string
	limit    int
	offset   int
}

var destinationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List destinations",
	Args:  cobra.NoArgs,
	RunE:  runDestinationsList,
}

var destinationsShowCmd = &cobra.Command{
	Use:   "show <destination-id>",
	Short: "Show one destination",
	Args:  cobra.ExactArgs(1),
	RunE:  runDestinationsShow,
}

var countriesMatch string

var destinationsCountriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List countries with destinations",
	Args:  cobra.NoArgs,
	RunE:  runDestinationsCountries,
}

var destinationsFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Fuzzy-find destinations by name or country",
	Long: `Fetch destinations (optionally narrowed by --category and --country)
and rank them locally against the query, so "kyto" still finds Kyoto.`,
	Args: cobra.ExactArgs(1),
	RunE: runDestinationsFind,
}

func init() {
	f := destinationsListCmd.Flags()
	f.StringVarP(&destParams.query, "query", "q", "", "substring match on name")
	f.StringVar(&destParams.category, "category", "", "filter by category (city, landmark)")
	f.StringVar(&destParams.country, "country", "", "filter by country")
	f.IntVar(&destParams.limit, "limit", 0, "page size (server default when 0)")
	f.IntVar(&destParams.offset, "offset", 0, "page offset")

	destinationsCountriesCmd.Flags().StringVar(&destParams.category, "category", "", "only countries with this category")
	destinationsCountriesCmd.Flags().StringVar(&countriesMatch, "match", "", "fuzzy filter, ignoring case and accents")

	destinationsFindCmd.Flags().StringVar(&destParams.category, "category", "", "filter by category (city, landmark)")
	destinationsFindCmd.Flags().StringVar(&destParams.country, "country", "", "filter by country")

	destinationsCmd.AddCommand(destinationsListCmd)
	destinationsCmd.AddCommand(destinationsShowCmd)
	destinationsCmd.AddCommand(destinationsCountriesCmd)
	destinationsCmd.AddCommand(destinationsFindCmd)
}

// destinationTable renders destinations
type destinationTable struct {
	dests   []domain.Destination
	printer *output.Printer
}

func (t destinationTable) Headers() []string {
	return []string{"ID", "", "Name", "Category", "Location"}
}

func (t destinationTable) Rows() [][]string {
	rows := make([][]string, len(t.dests))
	for i, d := range t.dests {
		marker := ""
		if d.InBucketList {
			marker = t.printer.Visit(false)
		}
		rows[i] = []string{
			strconv.FormatInt(d.ID, 10),
			marker,
			d.Name,
			string(d.Category),
			d.Location(),
		}
	}
	return rows
}

func runDestinationsList(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	category, err := parseCategory(destParams.category)
	if err != nil {
		return err
	}

	dests, err := e.apiClient().FetchDestinations(cmd.Context(), domain.DestinationParams{
		Query:    destParams.query,
		Category: category,
		Country:  destParams.country,
		Limit:    destParams.limit,
		Offset:   destParams.offset,
	})
	if err != nil {
		return err
	}
	return e.printer.Render(dests, destinationTable{dests: dests, printer: e.printer})
}

func runDestinationsShow(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	d, err := e.apiClient().FetchDestination(cmd.Context(), id)
	if err != nil {
		return err
	}
	if e.printer.Format() != output.FormatTable {
		return e.printer.Print(d)
	}

	pairs := [][2]string{
		{"Name", d.Name},
		{"Category", string(d.Category)},
		{"Location", d.Location()},
		{"Coordinates", strconv.FormatFloat(d.Latitude, 'f', 4, 64) + ", " + strconv.FormatFloat(d.Longitude, 'f', 4, 64)},
	}
	if d.Population > 0 {
		pairs = append(pairs, [2]string{"Population", strconv.FormatInt(d.Population, 10)})
	}
	if d.Description != "" {
		pairs = append(pairs, [2]string{"About", d.Description})
	}
	if d.InBucketList {
		pairs = append(pairs, [2]string{"Bucket list", "item " + strconv.FormatInt(d.BucketItemID, 10)})
	}
	return output.SimpleTable(e.printer.Writer(), pairs)
}

func runDestinationsCountries(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	category, err := parseCategory(destParams.category)
	if err != nil {
		return err
	}

	countries, err := e.apiClient().FetchCountries(cmd.Context(), category)
	if err != nil {
		return err
	}
	if countriesMatch != "" {
		countries = search.MatchCountries(countries, countriesMatch)
	}

	table := output.NewTableData("Country")
	for _, c := range countries {
		table.AddRow(c)
	}
	return e.printer.Render(countries, table)
}

func runDestinationsFind(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	category, err := parseCategory(destParams.category)
	if err != nil {
		return err
	}

	dests, err := e.apiClient().FetchDestinations(cmd.Context(), domain.DestinationParams{
		Category: category,
		Country:  destParams.country,
		Limit:    maxPage,
	})
	if err != nil {
		return err
	}

	results := search.RankDestinations(dests, args[0])
	ranked := make([]domain.Destination, len(results))
	for i, r := range results {
		ranked[i] = r.Item
	}
	if len(ranked) == 0 && e.printer.Format() == output.FormatTable {
		e.printer.Warning("no destinations match " + strconv.Quote(args[0]))
		return nil
	}
	return e.printer.Render(ranked, destinationTable{dests: ranked, printer: e.printer})
}
