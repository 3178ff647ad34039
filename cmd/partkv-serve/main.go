// Command partkv-serve runs the partkv serving core against an etcd
// coordinator and the local-filesystem reference storage engine, exposing
// nothing on the wire itself — it exists to exercise the Handler end to end
// and as a template for embedding it behind a real transport.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ringserve/partkv/internal/etcdcoord"
	"github.com/ringserve/partkv/internal/localfs"
	"github.com/ringserve/partkv/pkg/partkv"
)

type serveFlags struct {
	etcdEndpoints     []string
	etcdKeyPrefix     string
	ringGroupName     string
	hostAddress       string
	numConcurrentGets int
	maxBulkInFlight   int
	logLevel          string
	metricsNamespace  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "partkv-serve",
		Short: "Serve reads for a ring group out of the local filesystem, coordinated via etcd",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), f)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&f.etcdEndpoints, "etcd-endpoints", []string{"127.0.0.1:2379"}, "etcd client endpoints")
	flags.StringVar(&f.etcdKeyPrefix, "etcd-key-prefix", "/partkv", "key prefix under which the metadata graph is stored")
	flags.StringVar(&f.ringGroupName, "ring-group", "", "ring group this process serves (required)")
	flags.StringVar(&f.hostAddress, "host-address", "", "this host's address as it appears in the ring group's host list (required)")
	flags.IntVar(&f.numConcurrentGets, "num-concurrent-gets", 16, "size of the Get/GetBulk worker pool")
	flags.IntVar(&f.maxBulkInFlight, "max-bulk-in-flight", 0, "bound on concurrent sub-requests across all GetBulk calls, 0 for unbounded")
	flags.StringVar(&f.logLevel, "log-level", "info", "one of none, error, warn, info, debug")
	flags.StringVar(&f.metricsNamespace, "metrics-namespace", "partkv", "Prometheus metric namespace")

	cobra.CheckErr(cmd.MarkFlagRequired("ring-group"))
	cobra.CheckErr(cmd.MarkFlagRequired("host-address"))

	return cmd
}

func parseLogLevel(s string) (partkv.LogLevel, error) {
	switch s {
	case "none":
		return partkv.LogLevelNone, nil
	case "error":
		return partkv.LogLevelError, nil
	case "warn":
		return partkv.LogLevelWarn, nil
	case "info":
		return partkv.LogLevelInfo, nil
	case "debug":
		return partkv.LogLevelDebug, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func runServe(ctx context.Context, f *serveFlags) error {
	level, err := parseLogLevel(f.logLevel)
	if err != nil {
		return err
	}

	z, err := partkv.DefaultZapConfig().Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer z.Sync()
	logger := partkv.NewZapLogger(z, level)

	etcdClient, err := clientv3.New(clientv3.Config{Endpoints: f.etcdEndpoints})
	if err != nil {
		return fmt.Errorf("connecting to etcd: %w", err)
	}
	defer etcdClient.Close()

	registry := etcdcoord.Registry{
		Partitioners: map[string]partkv.Partitioner{
			"crc32c":  partkv.NewCRC32CPartitioner(logger),
			"blake2b": partkv.NewBlake2bPartitioner(),
		},
		StorageEngines: map[string]partkv.StorageEngine{
			"localfs": localfs.NewEngine(),
		},
	}
	coordinator := etcdcoord.New(etcdClient, f.etcdKeyPrefix, registry)

	assembler := partkv.NewHandlerAssembler(coordinator, f.hostAddress)
	handler, err := assembler.Assemble(
		partkv.WithRingGroupName(f.ringGroupName),
		partkv.WithNumConcurrentGets(f.numConcurrentGets),
		partkv.WithMaxBulkInFlight(f.maxBulkInFlight),
		partkv.WithLogger(logger),
		partkv.WithMetricsNamespace(f.metricsNamespace),
	)
	if err != nil {
		return fmt.Errorf("assembling handler: %w", err)
	}

	logger.Log(partkv.LogLevelInfo, "handler ready", "ringGroup", f.ringGroupName, "host", f.hostAddress)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Log(partkv.LogLevelInfo, "shutting down")
	return handler.ShutDown()
}
