// Package main provides the entry point for pidctl.
//
// pidctl is a thin client for the pidd allocation daemon. It forwards
// commands over the daemon's Unix socket and prints the results; all
// allocation policy lives in the daemon.
//
// Usage:
//
//	pidctl [flags] allocate [-n count] [-owner name]
//	pidctl [flags] release <pid> [<pid>...]
//	pidctl [flags] status
//
// Flags:
//
//	--socket string   Path to the daemon's Unix socket
//	                  (default: /var/run/pid-manager/pidd.sock)
//	--timeout duration  How long to wait for the daemon (default: 15s)
//
// Exit codes: 0 on success, 1 on usage or transport errors, 2 when the
// daemon answers an allocation request with the -1 sentinel.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ilgerodias/pid-manager/pkg/allocator"
	"github.com/ilgerodias/pid-manager/pkg/pidserver"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUnallocated = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("pidctl", flag.ContinueOnError)
	socketPath := flags.String("socket", pidserver.DefaultSocketPath,
		"Path to the daemon's Unix socket")
	timeout := flags.Duration("timeout", 15*time.Second,
		"How long to wait for the daemon")
	if err := flags.Parse(args); err != nil {
		return exitError
	}

	if flags.NArg() < 1 {
		usage(flags)
		return exitError
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := pidserver.NewClient(*socketPath)
	if err := client.WaitReady(ctx, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "pidctl: cannot reach daemon at %s: %v\n", *socketPath, err)
		return exitError
	}

	command := flags.Arg(0)
	rest := flags.Args()[1:]
	switch command {
	case "allocate":
		return cmdAllocate(ctx, client, rest)
	case "release":
		return cmdRelease(ctx, client, rest)
	case "status":
		return cmdStatus(ctx, client)
	default:
		fmt.Fprintf(os.Stderr, "pidctl: unknown command %q\n", command)
		usage(flags)
		return exitError
	}
}

// cmdAllocate requests one or more identifiers and prints them.
func cmdAllocate(ctx context.Context, client *pidserver.Client, args []string) int {
	flags := flag.NewFlagSet("pidctl allocate", flag.ContinueOnError)
	count := flags.Int("n", 1, "Number of identifiers to allocate")
	owner := flags.String("owner", "", "Owner name recorded in daemon logs")
	if err := flags.Parse(args); err != nil {
		return exitError
	}
	if *count < 1 {
		fmt.Fprintln(os.Stderr, "pidctl: -n must be at least 1")
		return exitError
	}

	code := exitOK
	for i := 0; i < *count; i++ {
		pid, err := client.Allocate(ctx, *owner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pidctl: allocate failed: %v\n", err)
			return exitError
		}
		fmt.Println(pid)
		if pid == allocator.Unallocated {
			code = exitUnallocated
		}
	}
	return code
}

// cmdRelease returns one or more identifiers to the pool.
func cmdRelease(ctx context.Context, client *pidserver.Client, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "pidctl: release requires at least one PID")
		return exitError
	}

	for _, arg := range args {
		pid, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pidctl: invalid PID %q\n", arg)
			return exitError
		}
		if err := client.Release(ctx, pid); err != nil {
			fmt.Fprintf(os.Stderr, "pidctl: release failed: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

// cmdStatus prints the daemon's pool occupancy.
func cmdStatus(ctx context.Context, client *pidserver.Client) int {
	status, err := client.Status(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pidctl: status failed: %v\n", err)
		return exitError
	}

	fmt.Printf("range:     [%d, %d]\n", status.Min, status.Max)
	fmt.Printf("used:      %d\n", status.Used)
	fmt.Printf("available: %d\n", status.Available)
	fmt.Printf("ready:     %t\n", status.Ready)
	return exitOK
}

func usage(flags *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "Usage: pidctl [flags] <allocate|release|status> [args]")
	flags.PrintDefaults()
}
