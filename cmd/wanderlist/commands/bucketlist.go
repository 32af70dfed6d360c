package commands

import (
	"fmt"
	"strconv"

	"github.com/mmcdole/wanderlist/internal/cli/output"
	"github.com/mmcdole/wanderlist/internal/domain"
	"github.com/mmcdole/wanderlist/internal/search"
	"github.com/spf13/cobra"
)

var bucketlistCmd = &cobra.Command{
	Use:     "bucketlist",
	Aliases: []string{"bl"},
	Short:   "Manage your travel bucket list",
}

var (
	listVisited  bool
	listPlanned  bool
	listCategory string
	listSearch   string
)

var bucketlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bucket list items",
	Args:  cobra.NoArgs,
	RunE:  runBucketlistList,
}

var addNotes string

var bucketlistAddCmd = &cobra.Command{
	Use:   "add <destination-id>",
	Short: "Add a destination to the bucket list",
	Args:  cobra.ExactArgs(1),
	RunE:  runBucketlistAdd,
}

var (
	updateVisited bool
	updateDate    string
	updateNotes   string
)

var bucketlistUpdateCmd = &cobra.Command{
	Use:   "update <item-id>",
	Short: "Update a bucket list item",
	Long: `Update a bucket list item. Only the flags given are sent, so
"--visited --date 2024-05-01" leaves the notes untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runBucketlistUpdate,
}

var bucketlistRemoveCmd = &cobra.Command{
	Use:     "remove <item-id>",
	Aliases: []string{"rm"},
	Short:   "Remove an item from the bucket list",
	Args:    cobra.ExactArgs(1),
	RunE:    runBucketlistRemove,
}

var mapVisitedOnly bool

var bucketlistMapCmd = &cobra.Command{
	Use:   "map",
	Short: "List map markers for the bucket list",
	Args:  cobra.NoArgs,
	RunE:  runBucketlistMap,
}

func init() {
	bucketlistListCmd.Flags().BoolVar(&listVisited, "visited", false, "only visited destinations")
	bucketlistListCmd.Flags().BoolVar(&listPlanned, "planned", false, "only destinations not yet visited")
	bucketlistListCmd.Flags().StringVar(&listCategory, "category", "", "filter by category (city, landmark)")
	bucketlistListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "fuzzy filter by destination or country")
	bucketlistListCmd.MarkFlagsMutuallyExclusive("visited", "planned")

	bucketlistAddCmd.Flags().StringVar(&addNotes, "notes", "", "notes for this destination")

	bucketlistUpdateCmd.Flags().BoolVar(&updateVisited, "visited", false, "mark as visited (--visited=false to unmark)")
	bucketlistUpdateCmd.Flags().StringVar(&updateDate, "date", "", "visit date, YYYY-MM-DD")
	bucketlistUpdateCmd.Flags().StringVar(&updateNotes, "notes", "", "replace the notes")

	bucketlistMapCmd.Flags().BoolVar(&mapVisitedOnly, "visited-only", false, "only visited destinations")

	bucketlistCmd.AddCommand(bucketlistListCmd)
	bucketlistCmd.AddCommand(bucketlistAddCmd)
	bucketlistCmd.AddCommand(bucketlistUpdateCmd)
	bucketlistCmd.AddCommand(bucketlistRemoveCmd)
	bucketlistCmd.AddCommand(bucketlistMapCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return id, nil
}

func parseCategory(s string) (domain.Category, error) {
	c := domain.Category(s)
	if s != "" && !c.Valid() {
		return "", fmt.Errorf("invalid category: %q (valid: city, landmark)", s)
	}
	return c, nil
}

// bucketListTable renders bucket list items
type bucketListTable struct {
	items   []domain.BucketListItem
	printer *output.Printer
}

func (t bucketListTable) Headers() []string {
	return []string{"ID", "", "Destination", "Country", "Category", "Status", "Notes"}
}

func (t bucketListTable) Rows() [][]string {
	rows := make([][]string, len(t.items))
	for i, item := range t.items {
		rows[i] = []string{
			strconv.FormatInt(item.ID, 10),
			t.printer.Visit(item.Visited),
			item.DestinationName,
			item.DestinationCountry,
			string(item.DestinationCategory),
			item.Status(),
			item.Notes,
		}
	}
	return rows
}

func runBucketlistList(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	category, err := parseCategory(listCategory)
	if err != nil {
		return err
	}

	params := domain.BucketListParams{Category: category}
	switch {
	case listVisited:
		visited := true
		params.Visited = &visited
	case listPlanned:
		visited := false
		params.Visited = &visited
	}

	items, err := e.apiClient().FetchBucketList(cmd.Context(), params)
	if err != nil {
		return err
	}

	if listSearch != "" {
		results := search.RankBucketList(items, listSearch)
		items = make([]domain.BucketListItem, len(results))
		for i, r := range results {
			items[i] = r.Item
		}
	}

	return e.printer.Render(items, bucketListTable{items: items, printer: e.printer})
}

func runBucketlistAdd(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	destID, err := parseID(args[0])
	if err != nil {
		return err
	}

	item, err := e.apiClient().AddToBucketList(cmd.Context(), destID, addNotes)
	if err != nil {
		return err
	}
	if e.printer.Format() != output.FormatTable {
		return e.printer.Print(item)
	}
	e.printer.Success(fmt.Sprintf("added %s (item %d)", item.DestinationName, item.ID))
	return nil
}

func runBucketlistUpdate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	itemID, err := parseID(args[0])
	if err != nil {
		return err
	}

	var update domain.BucketListUpdate
	flags := cmd.Flags()
	if flags.Changed("visited") {
		update.Visited = &updateVisited
	}
	if flags.Changed("date") {
		update.VisitedDate = &updateDate
	}
	if flags.Changed("notes") {
		update.Notes = &updateNotes
	}
	if update.Visited == nil && update.VisitedDate == nil && update.Notes == nil {
		return fmt.Errorf("nothing to update: pass --visited, --date or --notes")
	}

	item, err := e.apiClient().UpdateBucketListItem(cmd.Context(), itemID, update)
	if err != nil {
		return err
	}
	if e.printer.Format() != output.FormatTable {
		return e.printer.Print(item)
	}
	e.printer.Success(fmt.Sprintf("updated %s: %s", item.DestinationName, item.Status()))
	return nil
}

func runBucketlistRemove(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	itemID, err := parseID(args[0])
	if err != nil {
		return err
	}

	if err := e.apiClient().RemoveFromBucketList(cmd.Context(), itemID); err != nil {
		return err
	}
	e.printer.Success(fmt.Sprintf("removed item %d", itemID))
	return nil
}

// markerTable renders map markers
type markerTable struct {
	markers []domain.MapMarker
	printer *output.Printer
}

func (t markerTable) Headers() []string {
	return []string{"Item", "", "Name", "Country", "Category", "Lat", "Lng"}
}

func (t markerTable) Rows() [][]string {
	rows := make([][]string, len(t.markers))
	for i, m := range t.markers {
		rows[i] = []string{
			strconv.FormatInt(m.BucketItemID, 10),
			t.printer.Visit(m.Visited),
			m.Name,
			m.Country,
			string(m.Category),
			strconv.FormatFloat(m.Latitude, 'f', 4, 64),
			strconv.FormatFloat(m.Longitude, 'f', 4, 64),
		}
	}
	return rows
}

func runBucketlistMap(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	markers, err := e.apiClient().FetchMapMarkers(cmd.Context(), mapVisitedOnly)
	if err != nil {
		return err
	}
	return e.printer.Render(markers, markerTable{markers: markers, printer: e.printer})
}
