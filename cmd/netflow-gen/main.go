/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	netflowgen "github.com/zoomoid/go-netflow-gen"
)

type options struct {
	config     string
	dest       string
	output     string
	verbose    bool
	interval   uint
	once       bool
	threads    int
	sourcePort uint16
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "netflow-gen",
		Short:         "Generate and transmit NetFlow packets (v5, v7, v9, IPFIX)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.Flags().Changed("dest"))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "path to a YAML flow description; built-in samples are used when absent")
	f.StringVarP(&opts.dest, "dest", "d", "127.0.0.1:2055", "destination IP:PORT, overrides the configured destination")
	f.StringVarP(&opts.output, "output", "o", "", "write framed packets to a pcap file instead of sending via UDP")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable progress logging")
	f.UintVarP(&opts.interval, "interval", "i", 2, "seconds between ticks in continuous mode")
	f.BoolVar(&opts.once, "once", false, "run a single tick and exit")
	f.IntVarP(&opts.threads, "threads", "t", netflowgen.DefaultWorkers, "number of concurrent exporter group workers")
	f.Uint16VarP(&opts.sourcePort, "source-port", "s", netflowgen.DefaultSourcePort, "UDP source port")
	cmd.MarkFlagsMutuallyExclusive("once", "interval")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, destFromFlag bool) error {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if opts.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zlog, err := zc.Build()
	if err != nil {
		return err
	}
	defer zlog.Sync()

	netflowgen.SetLogger(zapr.NewLogger(zlog))
	logger := netflowgen.Log.WithName("netflow-gen")
	ctx = netflowgen.IntoContext(ctx, logger)

	config := netflowgen.SampleConfig()
	if opts.config != "" {
		config, err = netflowgen.LoadConfig(opts.config)
		if err != nil {
			return err
		}
		logger.Info("loaded configuration", "path", opts.config, "flows", len(config.Flows))
	} else {
		logger.Info("no configuration provided, using built-in samples")
	}

	if err := netflowgen.ValidateConfig(config); err != nil {
		return err
	}

	// the -d flag wins over the configured destination, the configured
	// destination over the flag's default
	destAddr := opts.dest
	if !destFromFlag && !config.Destination.IsZero() {
		destAddr = config.Destination.Addr()
	}
	dest, err := net.ResolveUDPAddr("udp", destAddr)
	if err != nil {
		return netflowgen.InvalidDestination(destAddr, err)
	}

	var sink netflowgen.Sink
	if opts.output != "" {
		w, err := netflowgen.NewCaptureWriter(opts.output, dest)
		if err != nil {
			return err
		}
		sink = w
		logger.Info("writing packets to capture file", "path", opts.output, "dest", dest)
	} else {
		s := netflowgen.NewUDPSender(dest, opts.sourcePort)
		if err := s.Open(ctx); err != nil {
			return err
		}
		sink = s
	}
	defer sink.Close()

	runner := netflowgen.NewRunner(config, sink)
	runner.Workers = opts.threads
	runner.Interval = time.Duration(opts.interval) * time.Second
	runner.Once = opts.once

	return runner.Run(ctx)
}
