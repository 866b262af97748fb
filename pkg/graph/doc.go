// Package graph defines the merge-tree graph document and its encodings.
//
// A [Graph] holds critical points ([Node]) and the directed arcs between
// them ([Link]), both in the order the extractor produced them. The JSON
// form is the tool's primary output:
//
//	{
//	  "nodes": [
//	    {"id": 0, "type": 0, "scalar": 0.12, "x": -1, "y": 0, "z": 2}
//	  ],
//	  "links": [
//	    {"source": 0, "target": 1}
//	  ]
//	}
//
// Common operations:
//
//	graph.WriteFile(g, "out/tachyview_graph.json")  // indented JSON
//	g, _ := graph.ReadFile("out/tachyview_graph.json")
//	graph.WriteParquet(g, "out/tables")             // nodes.parquet + links.parquet
//
// Node IDs are positions in Nodes and are not stable across runs.
package graph
