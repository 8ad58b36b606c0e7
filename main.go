package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"

	"coi-devserver/httpd"
	"coi-devserver/nfs"
	"coi-devserver/rootfs"
	"coi-devserver/tftp"
	"coi-devserver/utils"
)

const drainTimeout = 10 * time.Second

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	fsys, err := rootfs.New(cfg.HTTP.ServedRoot)
	if err != nil {
		log.Fatalf("served root: %v", err)
	}

	loggerHTTP := log.New(os.Stdout, "http ", log.LstdFlags)
	srv, err := httpd.Start(cfg.HTTP, fsys, loggerHTTP)
	if err != nil {
		log.Fatalf("start http failure: %v", err)
	}

	var tftpSrv *tftp.Server
	if cfg.TFTP != "" {
		loggerTFTP := log.New(os.Stdout, "tftp ", log.LstdFlags)
		tftpSrv, err = tftp.StartTFTPServer(cfg.TFTP, fsys, 5*time.Second, loggerTFTP)
		if err != nil {
			log.Fatalf("start tftp failure: %v", err)
		}
	}

	var nfsLn net.Listener
	if cfg.NFS != "" {
		loggerNFS := log.New(os.Stdout, "nfs ", log.LstdFlags)
		nfsLn, err = nfs.StartNFSServer(cfg.NFS, fsys, loggerNFS)
		if err != nil {
			log.Fatalf("start nfs failure: %v", err)
		}
	}

	port := utils.MustPort(srv.Addr().String())
	url := "http://" + utils.DisplayHost(cfg.HTTP.BindAddress) + ":" + strconv.Itoa(port)
	color.New(color.FgGreen, color.Bold).Printf("✅ Serving %s on %s (%s)\n", cfg.HTTP.ServedRoot, url, cfg.HTTP.Family())

	// Block until termination signal, then let in-flight requests finish.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received signal %s, shutting down", sig)

	if tftpSrv != nil {
		tftpSrv.Shutdown()
	}
	if nfsLn != nil {
		_ = nfsLn.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	color.New(color.FgYellow).Println("\n🛑 Server stopped.")
}
