package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sitbon/wgmesh/pkg/config"
	"github.com/sitbon/wgmesh/pkg/mesh"
)

func openDocument(path string) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), "mesh.yaml", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	return f, path, nil
}

func loadMesh(opts *globalOpts) (*mesh.Mesh, error) {
	r, name, err := openDocument(opts.file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc, err := config.Load(r, name, opts.jsonIn)
	if err != nil {
		return nil, err
	}
	return mesh.New(doc)
}
