package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/luciancaetano/questnet/internal/config"
	"github.com/luciancaetano/questnet/internal/logging"
	"github.com/luciancaetano/questnet/internal/version"
	"github.com/luciancaetano/questnet/ws"
)

const shutdownTimeout = 5 * time.Second

func serve(c *cli.Context) error {
	cfg, err := config.LoadAndValidate(c.String("config"))
	if err != nil {
		return err
	}

	out := c.App.Writer
	if cfg.Logging.File != "" {
		file := logging.NewFileWriter(logging.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
		})
		defer file.Close()
		out = file
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, out)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"version":     version.Version,
		"commit":      version.Commit,
		"instance_id": cfg.InstanceID,
	}).Info("starting questnetd")

	wsCfg, err := cfg.WebsocketConfig(logger)
	if err != nil {
		return err
	}
	server, err := ws.New(wsCfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	server.OnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})
	newRelay(server, logger).attach()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stop is driven below, after the signal, with its own timeout.
	if err := server.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	printBanner(c.App.Writer, server.Addr(), cfg.Server.StatusPath)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-errCh:
			return err
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Stop(stopCtx)
	})

	return g.Wait()
}

func printBanner(w io.Writer, addr, statusPath string) {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		port = addr
	}
	lan := lanAddress()

	fmt.Fprintf(w, "\n"+
		"==========================================================\n"+
		"questnet server is running!\n\n"+
		"Clients on this network can connect to:\n"+
		"ws://%s\n\n"+
		"Or if connecting locally:\n"+
		"ws://%s\n\n"+
		"Status: http://%s%s\n"+
		"==========================================================\n\n",
		net.JoinHostPort(lan, port),
		net.JoinHostPort("localhost", port),
		net.JoinHostPort(lan, port), statusPath)
}

// lanAddress returns the first non-loopback IPv4 address of this host, or
// 127.0.0.1 when there is none.
func lanAddress() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "127.0.0.1"
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil && !ip4.IsLoopback() {
				return ip4.String()
			}
		}
	}
	return "127.0.0.1"
}
