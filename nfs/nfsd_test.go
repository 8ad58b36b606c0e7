package nfs

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	gonfs "github.com/willscott/go-nfs"

	"coi-devserver/rootfs"
)

func testFS(t *testing.T) billy.Filesystem {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>dev</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fsys, err := rootfs.New(dir)
	if err != nil {
		t.Fatalf("rootfs: %v", err)
	}
	return fsys
}

func TestMountIsReadOnly(t *testing.T) {
	h := newHandler(testFS(t))
	status, fsys, _ := h.Mount(context.Background(), nil, gonfs.MountRequest{Dirpath: []byte("/")})
	if status != gonfs.MountStatusOk {
		t.Fatalf("mount status=%v", status)
	}
	data, err := util.ReadFile(fsys, "index.html")
	if err != nil || string(data) != "<h1>dev</h1>" {
		t.Fatalf("read index.html got=%q err=%v", data, err)
	}
	if _, err := fsys.Create("new"); !errors.Is(err, billy.ErrReadOnly) {
		t.Fatalf("Create err=%v want ErrReadOnly", err)
	}
}

func TestStartNFSServer(t *testing.T) {
	ln, err := StartNFSServer("127.0.0.1:0", testFS(t), nil)
	if err != nil {
		t.Fatalf("StartNFSServer: %v", err)
	}
	c, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c.Close()
	if err := ln.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := StartNFSServer("127.0.0.1:bad", testFS(t), nil); err == nil {
		t.Fatalf("expected bind error")
	}
}
