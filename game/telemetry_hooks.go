package game

import "github.com/pthm-cable/sph/telemetry"

// flushTelemetry checks if the stats window should be flushed and writes it out.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.solver.Tick()) {
		return
	}

	g.solver.Sample(&g.sample)
	stats := g.collector.Flush(&g.sample)
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			g.logger.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick, stats.Particles); err != nil {
			g.logger.Error("failed to write perf", "error", err)
		}
	}
}

// saveSnapshot writes the current particle state to the output directory.
// Does nothing when output is disabled.
func (g *Game) saveSnapshot(reason string) {
	if g.outputManager == nil {
		return
	}

	var tick int64
	g.state, tick = g.solver.State(g.state)
	snap := telemetry.NewSnapshot(g.cfg, tick, g.state, reason)

	path, err := g.outputManager.WriteSnapshot(snap)
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}
	g.logger.Info("snapshot saved", "path", path, "tick", tick, "particles", len(g.state))
}
