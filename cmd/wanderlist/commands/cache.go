package commands

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmcdole/wanderlist/internal/cli/output"
	"github.com/mmcdole/wanderlist/internal/offline"
	"github.com/mmcdole/wanderlist/internal/server"
	"github.com/mmcdole/wanderlist/internal/store"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the offline asset cache",
	Long: `Inspect and manage stored cache generations. These commands open the
cache storage directly, so stop a running "wanderlist serve" first when the
cache is persisted to disk.`,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored cache generations",
	Args:  cobra.NoArgs,
	RunE:  runCacheStatus,
}

var cacheInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Fetch the manifest into the configured generation",
	Long: `Fetch every manifest asset from the origin into the generation named by
cache.name. Older generations are kept until "wanderlist cache activate".`,
	Args: cobra.NoArgs,
	RunE: runCacheInstall,
}

var cacheActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Make the installed generation current and delete the others",
	Args:  cobra.NoArgs,
	RunE:  runCacheActivate,
}

var purgeAll bool

var cachePurgeCmd = &cobra.Command{
	Use:   "purge [generation...]",
	Short: "Delete cache generations",
	Long: `Delete the named generations, or every generation with --all.
Without arguments the configured generation is deleted.`,
	RunE: runCachePurge,
}

var getHeaders bool

var cacheGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Fetch a path through the active cache",
	Long: `Request a path from the origin the way "wanderlist serve" would: static
assets are answered from the cache first, API calls always hit the network.
The response body is written to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheGet,
}

func init() {
	cachePurgeCmd.Flags().BoolVar(&purgeAll, "all", false, "delete every generation")
	cacheGetCmd.Flags().BoolVarP(&getHeaders, "include", "i", false, "print status and headers before the body")

	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheInstallCmd)
	cacheCmd.AddCommand(cacheActivateCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheGetCmd)
}

func (e *env) openStorage() (*store.GenerationStore, error) {
	storage, err := store.NewGenerationStore(e.cfg.Cache.Dir, e.cfg.Server.Origin)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache storage: %w", err)
	}
	return storage, nil
}

func (e *env) newManager(storage *store.GenerationStore) (*offline.Manager, error) {
	cacheCfg, err := e.offlineConfig()
	if err != nil {
		return nil, err
	}
	return offline.NewManager(cacheCfg, storage, e.fetcher(), offline.WithLogger(e.logger))
}

// generationTable renders cache status
type generationTable []server.GenerationStatus

func (t generationTable) Headers() []string {
	return []string{"Generation", "Entries", "Current"}
}

func (t generationTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, g := range t {
		current := ""
		if g.Current {
			current = "*"
		}
		rows[i] = []string{g.Name, strconv.Itoa(g.Entries), current}
	}
	return rows
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	storage, err := e.openStorage()
	if err != nil {
		return err
	}
	defer storage.Close()

	status, err := server.Status(storage, e.cfg.Cache.Name)
	if err != nil {
		return err
	}
	if len(status.Generations) == 0 && e.printer.Format() == output.FormatTable {
		e.printer.Warning("no cache generations stored")
		return nil
	}
	return e.printer.Render(status, generationTable(status.Generations))
}

func runCacheInstall(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	storage, err := e.openStorage()
	if err != nil {
		return err
	}
	defer storage.Close()

	m, err := e.newManager(storage)
	if err != nil {
		return err
	}
	if err := m.OnInstall(cmd.Context()); err != nil {
		return err
	}

	n, err := m.Entries()
	if err != nil {
		return err
	}
	e.printer.Success(fmt.Sprintf("installed %s (%d entries)", m.Name(), n))
	return nil
}

func runCacheActivate(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	storage, err := e.openStorage()
	if err != nil {
		return err
	}
	defer storage.Close()

	m, err := e.newManager(storage)
	if err != nil {
		return err
	}
	if err := m.Adopt(); err != nil {
		return fmt.Errorf("%w (run \"wanderlist cache install\" first)", err)
	}

	result, err := m.OnActivate(cmd.Context())
	if err != nil {
		return err
	}
	for _, name := range result.Failed {
		e.printer.Warning("failed to delete " + name)
	}
	e.printer.Success(fmt.Sprintf("activated %s, deleted %d stale generation(s)", m.Name(), len(result.Deleted)))
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	storage, err := e.openStorage()
	if err != nil {
		return err
	}
	defer storage.Close()

	names := args
	switch {
	case purgeAll:
		if names, err = storage.Keys(); err != nil {
			return err
		}
	case len(names) == 0:
		names = []string{e.cfg.Cache.Name}
	}

	for _, name := range names {
		deleted, err := storage.Delete(name)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", name, err)
		}
		if deleted {
			e.printer.Success("deleted " + name)
		} else {
			e.printer.Warning("no generation named " + name)
		}
	}
	return nil
}

func runCacheGet(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	origin, err := e.cfg.OriginURL()
	if err != nil {
		return err
	}
	storage, err := e.openStorage()
	if err != nil {
		return err
	}
	defer storage.Close()

	m, err := e.newManager(storage)
	if err != nil {
		return err
	}
	if err := m.Restore(); err != nil {
		return fmt.Errorf("%w (run \"wanderlist cache install\" first)", err)
	}
	defer m.Wait()

	target := strings.TrimRight(origin.String(), "/") + "/" + strings.TrimLeft(args[0], "/")
	client := &http.Client{Transport: &offline.Transport{Manager: m}}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out := cmd.OutOrStdout()
	if getHeaders {
		fmt.Fprintf(out, "%s %s\n", resp.Proto, resp.Status)
		resp.Header.Write(out)
		fmt.Fprintln(out)
	}
	_, err = io.Copy(out, resp.Body)
	return err
}
