package nfs

import (
	"errors"
	"io"
	"log"
	"net"

	"github.com/go-git/go-billy/v5"
	gonfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"

	"coi-devserver/rootfs"
	"coi-devserver/utils"
)

// handleCacheSize bounds the file handle to path table kept by go-nfs.
const handleCacheSize = 1024

func newHandler(fsys billy.Filesystem) gonfs.Handler {
	return nfshelper.NewCachingHandler(nfshelper.NewNullAuthHandler(rootfs.ReadOnly(fsys)), handleCacheSize)
}

// StartNFSServer exports fsys read-only over NFSv3 on a TCP listener. Clients
// mount it without a portmapper, e.g.
// mount -o port=N,mountport=N,nfsvers=3,tcp,nolock host:/ /mnt.
func StartNFSServer(addr string, fsys billy.Filesystem, logger *log.Logger) (net.Listener, error) {
	if addr == "" {
		addr = ":2049"
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &utils.BindError{Network: "tcp", Addr: addr, Err: err}
	}
	handler := newHandler(fsys)
	go func() {
		logger.Printf("nfsd v3 listening on %s base=%q", ln.Addr(), fsys.Root())
		if err := gonfs.Serve(ln, handler); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Printf("nfsd serve error: %v", err)
		}
	}()
	return ln, nil
}
