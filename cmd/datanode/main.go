// Package main is the data-server storage core's process entrypoint. It
// is deliberately thin: it wires the process-level knobs (data dir, meta
// dir, sync flag, read-only flag) onto storage/config, opens the KV
// backend and meta store, and serves a Prometheus metrics endpoint. The
// network/session layer, replication, and request routing that would
// turn this into an actual data-server node are out of scope; those
// pieces would sit above storage/rangestore.Range and dispatch into it.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marknewmail/sharkstore/roachpb"
	"github.com/marknewmail/sharkstore/storage/config"
	"github.com/marknewmail/sharkstore/storage/engine"
	"github.com/marknewmail/sharkstore/storage/metastore"
	"github.com/marknewmail/sharkstore/util/log"
	"github.com/marknewmail/sharkstore/util/metric"
)

var cfg = config.DefaultConfig("", "")

var metricsAddr string

var rootCmd = &cobra.Command{
	Use:   "datanode",
	Short: "sharkstore data-server storage core",
	Long: `
datanode opens a range-partitioned table store (KV backend, meta store)
against the given data and meta directories and serves it. It carries no
network or replication layer of its own — this is the storage core, not
the RPC-facing node.
`,
	RunE: runStart,
}

var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "list the range descriptors recorded in the meta store",
	RunE:  runRanges,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DataDir, "data-dir", "sharkstore-data", "directory user-data ranges are persisted under")
	pf.StringVar(&cfg.MetaDir, "meta-dir", "sharkstore-meta", "directory the meta store is persisted under")
	pf.BoolVar(&cfg.ReadOnly, "read-only", false, "open both stores without permitting writes")
	pf.BoolVar(&cfg.SyncOnWrite, "sync-on-write", true, "fsync user-data batch writes (insert, structured delete)")
	pf.BoolVar(&cfg.SyncApplyIndex, "sync-apply-index", false, "fsync apply-index bookkeeping writes")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9091", "address to serve /metrics on")

	rangesCmd.Flags().AddFlagSet(pf)
	rootCmd.AddCommand(rangesCmd)
}

func openStores(cfg config.Config, metrics *metric.StoreMetrics) (*engine.Engine, *metastore.Store, error) {
	eng, err := engine.Open(cfg.DataDir, cfg.ReadOnly)
	if err != nil {
		return nil, nil, err
	}
	meta, err := metastore.Open(cfg.MetaDir, cfg.ReadOnly, metrics)
	if err != nil {
		eng.Close()
		return nil, nil, err
	}
	return eng, meta, nil
}

func runRanges(cmd *cobra.Command, args []string) error {
	_, meta, err := openStores(cfg, nil)
	if err != nil {
		return err
	}
	defer meta.Close()

	descs, err := meta.GetAllRange()
	if err != nil {
		return err
	}
	if len(descs) == 0 {
		fmt.Println("no ranges recorded")
		return nil
	}
	for _, d := range descs {
		fmt.Printf("range %d: schema %d, [%x, %x), %d replicas, version %d\n",
			d.RangeID, d.SchemaID, d.StartKey, d.EndKey, len(d.ReplicaSet), d.Version)
	}
	return nil
}

// runStart opens the stores, logs a summary of the ranges the meta store
// already knows about, and blocks serving /metrics until interrupted. It
// does not itself open any storage/rangestore.Range: a Range needs a
// roachpb.Schema, and schema distribution is the request dispatcher's
// job, which this entrypoint doesn't have.
func runStart(cmd *cobra.Command, args []string) error {
	reg := prometheus.NewRegistry()
	metrics := metric.NewStoreMetrics(reg)

	eng, meta, err := openStores(cfg, metrics)
	if err != nil {
		return err
	}
	defer eng.Close()
	defer meta.Close()

	nodeID, err := meta.GetNodeID()
	if err != nil {
		return err
	}
	if nodeID == 0 && !cfg.ReadOnly {
		nodeID = roachpb.NewSyntheticID()
		if err := meta.SaveNodeID(nodeID); err != nil {
			return err
		}
		log.Infof(nil, "assigned node id %d on first boot", nodeID)
	}
	descs, err := meta.GetAllRange()
	if err != nil {
		return err
	}
	log.Infof(nil, "node %d: %d ranges recorded in %s, data in %s (read_only=%v, sync_on_write=%v)",
		nodeID, len(descs), cfg.MetaDir, cfg.DataDir, cfg.ReadOnly, cfg.SyncOnWrite)

	metrics.OpenRanges.Set(float64(len(descs)))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: metricsAddr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	log.Infof(nil, "serving metrics on %s", metricsAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	select {
	case <-sig:
		log.Infof(nil, "shutting down")
		return srv.Close()
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
