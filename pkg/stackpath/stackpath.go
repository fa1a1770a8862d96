// Package stackpath implements StackPathSearch: a memoized DFS over the
// call graph from the entry symbol that expands every recursive node to
// its full depth and returns the maximum summed path.
package stackpath

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/mranakol/avrstack/pkg/avr"
)

var log = logrus.WithField("stage", "stackpath")

// DefaultCacheSize bounds the memoization table. Eviction only costs extra
// recomputation, never correctness, since the DFS is deterministic and a
// cache miss just redoes the work.
const DefaultCacheSize = 8192

// Result is the outcome of a full StackPathSearch run.
type Result struct {
	RawMax  int
	Max     avr.PathResult
	Paths   []avr.PathResult
}

type memoEntry struct {
	contribution int
	paths        []avr.PathResult
}

// Engine runs StackPathSearch over a sealed call graph.
type Engine struct {
	graph      *avr.CallGraph
	localFrame map[string]int
	recursive  map[string]avr.RecursionInfo
	cache      *lru.Cache
}

// New builds a search engine. localFrame and recursive are read-only for
// the lifetime of the engine.
func New(graph *avr.CallGraph, localFrame map[string]int, recursive map[string]avr.RecursionInfo) (*Engine, error) {
	c, err := lru.New(DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("stackpath: building memo cache: %w", err)
	}
	return &Engine{graph: graph, localFrame: localFrame, recursive: recursive, cache: c}, nil
}

// Search runs the traversal from entry (typically "main") and returns the
// maximal path plus every complete path recorded along the way.
func (e *Engine) Search(entry string) Result {
	contribution, paths := e.explore(nil, entry)

	best := avr.PathResult{}
	for _, p := range paths {
		if p.Cost > best.Cost {
			best = p
		}
	}
	if len(paths) == 0 {
		best = avr.PathResult{Functions: []string{entry}, Cost: e.localFrame[entry]}
	}

	log.Debugf("raw_max=%d (%d complete paths recorded)", contribution, len(paths))
	return Result{RawMax: contribution, Max: best, Paths: paths}
}

func (e *Engine) explore(path []string, cur string) (int, []avr.PathResult) {
	key := memoKey(path, cur)
	if v, ok := e.cache.Get(key); ok {
		entry := v.(memoEntry)
		return entry.contribution, entry.paths
	}

	if info, isRecursive := e.recursive[cur]; isRecursive && !onPath(path, cur) {
		cost := info.Depth * e.localFrame[cur]
		full := make([]string, 0, len(path)+info.Depth)
		full = append(full, path...)
		for i := 0; i < info.Depth; i++ {
			full = append(full, cur)
		}
		result := []avr.PathResult{{Functions: full, Cost: e.pathCost(full)}}
		e.cache.Add(key, memoEntry{contribution: cost, paths: result})
		return cost, result
	}

	if onPath(path, cur) {
		e.cache.Add(key, memoEntry{contribution: 0, paths: nil})
		return 0, nil
	}

	newPath := make([]string, 0, len(path)+1)
	newPath = append(newPath, path...)
	newPath = append(newPath, cur)

	succs := e.graph.Successors(cur)
	maxSucc := 0
	var allPaths []avr.PathResult
	for _, g := range succs {
		childContribution, childPaths := e.explore(newPath, g)
		allPaths = append(allPaths, childPaths...)
		if childContribution > maxSucc {
			maxSucc = childContribution
		}
	}
	if len(succs) == 0 {
		allPaths = append(allPaths, avr.PathResult{Functions: append([]string(nil), newPath...), Cost: e.pathCost(newPath)})
	}

	contribution := e.localFrame[cur] + maxSucc
	e.cache.Add(key, memoEntry{contribution: contribution, paths: allPaths})
	return contribution, allPaths
}

func (e *Engine) pathCost(functions []string) int {
	sum := 0
	for _, f := range functions {
		sum += e.localFrame[f]
	}
	return sum
}

func onPath(path []string, name string) bool {
	for _, p := range path {
		if p == name {
			return true
		}
	}
	return false
}

func memoKey(path []string, cur string) string {
	var b strings.Builder
	b.WriteString(cur)
	b.WriteByte('\x00')
	b.WriteString(strings.Join(path, "\x00"))
	return b.String()
}
