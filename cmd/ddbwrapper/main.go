package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/suparena/ddbwrapper"
	"github.com/suparena/ddbwrapper/config"
	"github.com/suparena/ddbwrapper/storagemodels"
)

var (
	configFlag  = flag.String("config", "", "Path to the YAML configuration file")
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: ddbwrapper [-config file] <command> [flags]

Commands:
  batch-write  write the items of a JSON file to a table
  query        query a table or index by partition key
  scan         scan a whole table or index

Global flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag || *vFlag {
		info := ddbwrapper.GetVersionInfo()
		fmt.Printf("ddbwrapper version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	cmd, ok := commands[command]
	if !ok {
		return fmt.Errorf("unknown command %q", command)
	}
	if err := cmd.flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := ddbwrapper.Open(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer client.Close()

	client.Events().OnConsumedCapacity(func(e storagemodels.ConsumedCapacityEvent) {
		client.Logger.Info().
			Str("method", e.Method).
			Str("capacity_type", string(e.CapacityType)).
			Float64("units", capacityUnits(e)).
			Msg("consumed capacity")
	})

	return cmd.run(ctx, client, os.Stdout)
}
