// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// File names in an extracted OGB dataset directory.
const (
	RawDir   = "raw"
	SplitDir = "split"

	EdgeFile        = "edge.csv.gz"
	NodeFeatFile    = "node-feat.csv.gz"
	EdgeFeatFile    = "edge-feat.csv.gz"
	NodeLabelFile   = "node-label.csv.gz"
	GraphLabelFile  = "graph-label.csv.gz"
	NumNodeListFile = "num-node-list.csv.gz"
	NumEdgeListFile = "num-edge-list.csv.gz"
	TrainSplitFile  = "train.csv.gz"
	ValidSplitFile  = "valid.csv.gz"
	TestSplitFile   = "test.csv.gz"
)

// readCSV reads a header-less (optionally gzipped) CSV file where all columns have the given type.
func readCSV(path string, colType series.Type) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(err, "opening %q", path)
	}
	defer func() { _ = f.Close() }()
	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return dataframe.DataFrame{}, errors.Wrapf(err, "reading gzip header of %q", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	df := dataframe.ReadCSV(r, dataframe.HasHeader(false), dataframe.DetectTypes(false),
		dataframe.DefaultType(colType))
	if df.Err != nil {
		return df, errors.Wrapf(df.Err, "parsing CSV %q", path)
	}
	return df, nil
}

// readInts reads an integer CSV file and returns its columns.
func readInts(path string) ([][]int, error) {
	df, err := readCSV(path, series.Int)
	if err != nil {
		return nil, err
	}
	cols := make([][]int, 0, df.Ncol())
	for _, name := range df.Names() {
		col, err := df.Col(name).Int()
		if err != nil {
			return nil, errors.Wrapf(err, "column %s of %q is not an integer", name, path)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// readInt32Column reads a single column integer CSV file.
func readInt32Column(path string) ([]int32, error) {
	cols, err := readInts(path)
	if err != nil {
		return nil, err
	}
	if len(cols) != 1 {
		return nil, errors.Errorf("%q: expected 1 column, got %d", path, len(cols))
	}
	values := make([]int32, len(cols[0]))
	for i, v := range cols[0] {
		values[i] = int32(v)
	}
	return values, nil
}

// readFloatMatrix reads a float CSV file into a row-major matrix. It returns the values and the number
// of columns.
func readFloatMatrix(path string) ([]float32, int, error) {
	df, err := readCSV(path, series.Float)
	if err != nil {
		return nil, 0, err
	}
	numRows, numCols := df.Dims()
	values := make([]float32, numRows*numCols)
	for j, name := range df.Names() {
		for i, v := range df.Col(name).Float() {
			values[i*numCols+j] = float32(v)
		}
	}
	return values, numCols, nil
}

// readEdges reads a two-column edge list.
func readEdges(path string) (sources, targets []int32, err error) {
	cols, err := readInts(path)
	if err != nil {
		return nil, nil, err
	}
	if len(cols) != 2 {
		return nil, nil, errors.Errorf("%q: edge list must have 2 columns, got %d", path, len(cols))
	}
	sources = make([]int32, len(cols[0]))
	targets = make([]int32, len(cols[1]))
	for e := range cols[0] {
		sources[e] = int32(cols[0][e])
		targets[e] = int32(cols[1][e])
	}
	return
}

// readSplit reads the split from the only sub-directory of `<dir>/split`, e.g.: `split/time` for
// ogbn-arxiv or `split/species` for ogbg-ppa.
func readSplit(dir string) (split Split, err error) {
	entries, err := os.ReadDir(filepath.Join(dir, SplitDir))
	if err != nil {
		return split, errors.Wrapf(err, "listing splits of %q", dir)
	}
	var splitDirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			splitDirs = append(splitDirs, entry.Name())
		}
	}
	if len(splitDirs) != 1 {
		return split, errors.Errorf("expected exactly one split sub-directory in %q, found %v",
			filepath.Join(dir, SplitDir), splitDirs)
	}
	splitPath := filepath.Join(dir, SplitDir, splitDirs[0])
	for _, part := range []struct {
		file string
		idx  *[]int32
	}{{TrainSplitFile, &split.Train}, {ValidSplitFile, &split.Valid}, {TestSplitFile, &split.Test}} {
		*part.idx, err = readInt32Column(filepath.Join(splitPath, part.file))
		if err != nil {
			return split, err
		}
	}
	return split, nil
}

// numClasses is the largest label + 1.
func numClasses(labels []int32) int {
	if len(labels) == 0 {
		return 0
	}
	return int(slices.Max(labels)) + 1
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadOGBNodeDataset loads an extracted OGB node property prediction dataset (e.g.: ogbn-arxiv)
// from dir.
//
// The edges are kept as given (directed): use ToUndirected afterwards if needed.
func LoadOGBNodeDataset(dir string) (*Graph, error) {
	raw := filepath.Join(dir, RawDir)
	g := &Graph{Name: filepath.Base(dir)}
	var err error
	g.Sources, g.Targets, err = readEdges(filepath.Join(raw, EdgeFile))
	if err != nil {
		return nil, err
	}
	g.Features, g.FeatureDim, err = readFloatMatrix(filepath.Join(raw, NodeFeatFile))
	if err != nil {
		return nil, err
	}
	g.Labels, err = readInt32Column(filepath.Join(raw, NodeLabelFile))
	if err != nil {
		return nil, err
	}
	g.Nodes = len(g.Labels)
	g.NumClasses = numClasses(g.Labels)
	if fileExists(filepath.Join(raw, EdgeFeatFile)) {
		g.EdgeFeatures, g.EdgeDim, err = readFloatMatrix(filepath.Join(raw, EdgeFeatFile))
		if err != nil {
			return nil, err
		}
	}
	g.Split, err = readSplit(dir)
	if err != nil {
		return nil, err
	}
	if err = g.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "loading OGB node dataset from %q", dir)
	}
	klog.V(1).Infof("loaded %q: %d nodes, %d edges, %d features, %d classes",
		g.Name, g.Nodes, g.NumEdges(), g.FeatureDim, g.NumClasses)
	return g, nil
}

// LoadOGBGraphDataset loads an extracted OGB graph property prediction dataset (e.g.: ogbg-ppa)
// from dir, as one large graph with all the graphs side by side.
//
// The node ids of each graph, local in the files, are converted to global ids, and GraphIDs is
// filled in. Node features are optional (ogbg-ppa has none, see ExtractNodeFeatures).
func LoadOGBGraphDataset(dir string) (*Graph, error) {
	raw := filepath.Join(dir, RawDir)
	g := &Graph{Name: filepath.Base(dir)}
	numNodesList, err := readInt32Column(filepath.Join(raw, NumNodeListFile))
	if err != nil {
		return nil, err
	}
	numEdgesList, err := readInt32Column(filepath.Join(raw, NumEdgeListFile))
	if err != nil {
		return nil, err
	}
	if len(numNodesList) != len(numEdgesList) {
		return nil, errors.Errorf("%q: %d graphs in %s, but %d in %s", dir,
			len(numNodesList), NumNodeListFile, len(numEdgesList), NumEdgeListFile)
	}
	g.Sources, g.Targets, err = readEdges(filepath.Join(raw, EdgeFile))
	if err != nil {
		return nil, err
	}

	g.NumGraphs = len(numNodesList)
	g.GraphIDs = make([]int32, 0, len(numNodesList))
	var nodeOffset int32
	var edge int
	for graphID, numNodes := range numNodesList {
		for range numNodes {
			g.GraphIDs = append(g.GraphIDs, int32(graphID))
		}
		numEdges := int(numEdgesList[graphID])
		if edge+numEdges > len(g.Sources) {
			return nil, errors.Errorf("%q: graph #%d needs edges up to #%d, but there are only %d edges",
				dir, graphID, edge+numEdges, len(g.Sources))
		}
		for e := edge; e < edge+numEdges; e++ {
			g.Sources[e] += nodeOffset
			g.Targets[e] += nodeOffset
		}
		edge += numEdges
		nodeOffset += numNodes
	}
	if edge != len(g.Sources) {
		return nil, errors.Errorf("%q: edge counts add up to %d, but there are %d edges", dir, edge, len(g.Sources))
	}
	g.Nodes = int(nodeOffset)

	g.Labels, err = readInt32Column(filepath.Join(raw, GraphLabelFile))
	if err != nil {
		return nil, err
	}
	g.NumClasses = numClasses(g.Labels)
	if fileExists(filepath.Join(raw, NodeFeatFile)) {
		g.Features, g.FeatureDim, err = readFloatMatrix(filepath.Join(raw, NodeFeatFile))
		if err != nil {
			return nil, err
		}
	}
	if fileExists(filepath.Join(raw, EdgeFeatFile)) {
		g.EdgeFeatures, g.EdgeDim, err = readFloatMatrix(filepath.Join(raw, EdgeFeatFile))
		if err != nil {
			return nil, err
		}
	}
	g.Split, err = readSplit(dir)
	if err != nil {
		return nil, err
	}
	if err = g.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "loading OGB graph dataset from %q", dir)
	}
	klog.V(1).Infof("loaded %q: %d graphs, %d nodes, %d edges, %d edge features, %d classes",
		g.Name, g.NumGraphs, g.Nodes, g.NumEdges(), g.EdgeDim, g.NumClasses)
	return g, nil
}
