package graph

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Parquet table file names written by WriteParquet.
const (
	NodesTable = "nodes.parquet"
	LinksTable = "links.parquet"
)

// NodeRow is the Parquet schema of the nodes table.
type NodeRow struct {
	ID     int64   `parquet:"id"`
	Type   int32   `parquet:"type"`
	Scalar float64 `parquet:"scalar"`
	X      float64 `parquet:"x"`
	Y      float64 `parquet:"y"`
	Z      float64 `parquet:"z"`
}

// LinkRow is the Parquet schema of the links table.
type LinkRow struct {
	Source int64 `parquet:"source"`
	Target int64 `parquet:"target"`
}

// WriteParquet writes g as two zstd-compressed tables, nodes.parquet and
// links.parquet, in dir.
func WriteParquet(g *Graph, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	nodes := make([]NodeRow, len(g.Nodes))
	for i, n := range g.Nodes {
		nodes[i] = NodeRow{ID: int64(n.ID), Type: int32(n.Type), Scalar: n.Scalar, X: n.X, Y: n.Y, Z: n.Z}
	}
	if err := writeTable(filepath.Join(dir, NodesTable), nodes); err != nil {
		return err
	}

	links := make([]LinkRow, len(g.Links))
	for i, l := range g.Links {
		links[i] = LinkRow{Source: int64(l.Source), Target: int64(l.Target)}
	}
	return writeTable(filepath.Join(dir, LinksTable), links)
}

func writeTable[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Zstd))
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close writer: %w", err)
	}
	return f.Close()
}

// ReadParquet reads the tables written by WriteParquet.
func ReadParquet(dir string) (*Graph, error) {
	nodes, err := readTable[NodeRow](filepath.Join(dir, NodesTable))
	if err != nil {
		return nil, err
	}
	links, err := readTable[LinkRow](filepath.Join(dir, LinksTable))
	if err != nil {
		return nil, err
	}

	g := &Graph{Nodes: make([]Node, len(nodes)), Links: make([]Link, len(links))}
	for i, r := range nodes {
		g.Nodes[i] = Node{ID: int(r.ID), Type: int(r.Type), Scalar: r.Scalar, X: r.X, Y: r.Y, Z: r.Z}
	}
	for i, r := range links {
		g.Links[i] = Link{Source: int(r.Source), Target: int(r.Target)}
	}
	return g, nil
}

func readTable[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := parquet.NewGenericReader[T](f)
	defer r.Close()

	rows := make([]T, r.NumRows())
	if len(rows) == 0 {
		return rows, nil
	}
	n, err := r.Read(rows)
	if err != nil && n < len(rows) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows[:n], nil
}
