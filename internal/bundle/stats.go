package bundle

import "sort"

// TargetStat records one resolved install target's contribution to the
// bundle: how many bytes its output chunk carries, how many distinct
// modules it pulled in transitively, and whether it was left external
// rather than bundled.
type TargetStat struct {
	Specifier       string
	Bytes           int
	DependencyCount int
	Externalized    bool
}

// statsCollector accumulates per-specifier dependency counts as the
// resolve plugin chain walks the module graph (spec §4.6: "collects
// per-target dependency counts"), then is reconciled against esbuild's
// output files once the build finishes to fill in byte sizes.
type statsCollector struct {
	dependencyCounts map[string]int
	externalized     map[string]bool
}

func newStatsCollector() *statsCollector {
	return &statsCollector{
		dependencyCounts: make(map[string]int),
		externalized:     make(map[string]bool),
	}
}

// recordDependency notes that root (a top-level install target's
// specifier) transitively pulled in one more resolved module.
func (c *statsCollector) recordDependency(root string) {
	c.dependencyCounts[root]++
}

// markExternalized notes that root was left unbundled.
func (c *statsCollector) markExternalized(root string) {
	c.externalized[root] = true
}

// outputFile is the subset of esbuild's OutputFile this package reads,
// kept narrow so stats logic is testable without linking esbuild.
type outputFile struct {
	Path     string
	Contents []byte
}

// finalize pairs each specifier's sanitized output name against
// esbuild's emitted files to resolve byte sizes, producing the final,
// sorted stats list.
func (c *statsCollector) finalize(specifiers []string, nameOf func(string) string, outputs []outputFile) []TargetStat {
	sizeByName := make(map[string]int, len(outputs))
	for _, f := range outputs {
		sizeByName[baseName(f.Path)] = len(f.Contents)
	}

	stats := make([]TargetStat, 0, len(specifiers))
	for _, spec := range specifiers {
		stats = append(stats, TargetStat{
			Specifier:       spec,
			Bytes:           sizeByName[nameOf(spec)],
			DependencyCount: c.dependencyCounts[spec],
			Externalized:    c.externalized[spec],
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Specifier < stats[j].Specifier })
	return stats
}

// baseName returns the final path segment, without pulling in
// path/filepath for a one-line operation already scoped to forward
// slashes (esbuild always reports "/"-separated virtual paths).
func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
