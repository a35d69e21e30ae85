package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/gogpu/demosaic"
)

// benchmark runs req n times and reports latency statistics.
func benchmark(w io.Writer, e *demosaic.Engine, req demosaic.Request, n int) error {
	ms := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		res, err := e.Process(req)
		if err != nil {
			return err
		}
		if !res.OK() {
			return fmt.Errorf("run %d: %s", i, res.Reason)
		}
		ms = append(ms, float64(time.Since(start).Microseconds())/1000)
	}
	sort.Float64s(ms)

	mean, std := stat.MeanStdDev(ms, nil)
	fmt.Fprintf(w, "runs=%d mean=%.2fms std=%.2fms p50=%.2fms p95=%.2fms max=%.2fms\n",
		n, mean, std,
		stat.Quantile(0.5, stat.Empirical, ms, nil),
		stat.Quantile(0.95, stat.Empirical, ms, nil),
		ms[len(ms)-1])
	return nil
}

// channelStats reports the mean and standard deviation of each channel.
func channelStats(w io.Writer, buf *demosaic.OutputBuffer) {
	n := buf.Width * buf.Height
	vals := make([]float64, n)
	for c := 0; c < buf.Channels; c++ {
		for i := 0; i < n; i++ {
			vals[i] = float64(buf.Pix[i*buf.Channels+c])
		}
		mean, std := stat.MeanStdDev(vals, nil)
		fmt.Fprintf(w, "channel %d: mean=%.5f std=%.5f\n", c, mean, std)
	}
}
