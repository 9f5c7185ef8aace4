package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/gridstore/gridstore-go/api/rest"
	"github.com/gridstore/gridstore-go/client"
	"github.com/gridstore/gridstore-go/cluster"
	"github.com/gridstore/gridstore-go/config"
	"github.com/gridstore/gridstore-go/conn"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := config.InitLogger(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer config.Sync()
	logger := config.GetLogger()

	cl, err := buildCluster(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build cluster", zap.Error(err))
	}
	defer cl.Shutdown()

	c := client.New(cl)

	switch os.Args[1] {
	case "ping":
		exitOn(c.Ping())
		fmt.Println("PONG")
	case "get":
		requireArgs(3)
		value, err := c.Get(os.Args[2])
		exitOn(err)
		os.Stdout.Write(value)
		fmt.Println()
	case "put":
		requireArgs(4)
		exitOn(c.Put(os.Args[2], []byte(os.Args[3])))
		fmt.Println("OK")
	case "del":
		requireArgs(3)
		exitOn(c.Delete(os.Args[2]))
		fmt.Println("OK")
	case "scan":
		requireArgs(3)
		sc, err := c.Scan(os.Args[2])
		exitOn(err)
		defer sc.Close()
		for key, ok := sc.Next(); ok; key, ok = sc.Next() {
			fmt.Println(string(key))
		}
		exitOn(sc.Err())
	case "serve":
		serve(cfg, cl, logger)
	default:
		usage()
		os.Exit(2)
	}
}

func buildCluster(cfg *config.ClientConfig, logger *zap.Logger) (*cluster.Cluster, error) {
	opts := conn.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		AcquireTimeout: cfg.AcquireTimeout,
	}

	nodes := make([]*cluster.Node, 0, len(cfg.Nodes))
	for _, nc := range cfg.Nodes {
		var mgr conn.Manager
		if cfg.UsePooling {
			pool, err := conn.NewPool(nc.Address, cfg.PoolSize, opts, logger)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", nc.Name, err)
			}
			mgr = pool
		} else {
			mgr = conn.NewOnDemand(nc.Address, opts, logger)
		}
		nodes = append(nodes, cluster.NewNode(nc.Name, nc.Address, mgr, logger))
	}

	return cluster.New(nodes, cluster.NewRoundRobin(), cluster.Options{
		RetryCount:   cfg.RetryCount,
		RetryWait:    cfg.RetryWait,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	}), nil
}

// serve runs the status HTTP server until SIGINT/SIGTERM.
func serve(cfg *config.ClientConfig, cl *cluster.Cluster, logger *zap.Logger) {
	addr := cfg.StatusAddr
	if addr == "" {
		addr = "127.0.0.1:7980"
	}

	router := mux.NewRouter()
	rest.NewStatusHandler(cl).RegisterRoutes(router)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Status server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Status server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutting down", zap.String("signal", sig.String()))
	server.Close()
}

func requireArgs(n int) {
	if len(os.Args) < n {
		usage()
		os.Exit(2)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: gridstore-cli <command> [args]

commands:
  ping              probe the cluster
  get <key>         fetch the value for a key
  put <key> <val>   store a value
  del <key>         delete a key
  scan <prefix>     stream keys matching a prefix
  serve             run the local status HTTP server

configuration is read from GRIDSTORE_* environment variables.`)
}
