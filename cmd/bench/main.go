// Bench is a benchmarking tool for measuring lshsig signature throughput,
// table read latency and memory usage.
//
// Usage:
//
//	go run ./cmd/bench -rows 1000000 -scheme minhash -workers 8
//
// Flags:
//
//	-rows        Number of input rows (default: 1,000,000)
//	-scheme      minhash or euclidean (default: minhash)
//	-len         Characters per text row, MinHash only (default: 32)
//	-ngram       N-gram width, MinHash only (default: 3)
//	-dims        Vector length, Euclidean only (default: 64)
//	-bands       Bands per signature (default: 16)
//	-band-size   Hash functions per band (default: 4)
//	-bits        Band value width, 32 or 64 (default: 64)
//	-workers     Number of parallel workers (default: 1)
package main

import (
	"database/sql"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/tamirms/lshsig"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 "

// fileSize returns the size of the file at path in bytes.
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024 // Convert KB to bytes on Linux
	}
	return maxRSS
}

// peakSampler tracks peak heap and RSS every 10ms. It uses runtime/metrics
// instead of ReadMemStats to avoid stop-the-world pauses that distort CPU
// profiles.
type peakSampler struct {
	peakAlloc atomic.Uint64
	peakRSS   atomic.Uint64
	done      chan struct{}
}

func startSampler(baselineAlloc, baselineRSS uint64) *peakSampler {
	s := &peakSampler{done: make(chan struct{})}
	s.peakAlloc.Store(baselineAlloc)
	s.peakRSS.Store(baselineRSS)
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				raisePeak(&s.peakAlloc, samples[0].Value.Uint64())
				raisePeak(&s.peakRSS, getMaxRSS())
			}
		}
	}()
	return s
}

func raisePeak(peak *atomic.Uint64, v uint64) {
	for {
		old := peak.Load()
		if v <= old || peak.CompareAndSwap(old, v) {
			return
		}
	}
}

func (s *peakSampler) stop() {
	close(s.done)
	var final runtime.MemStats
	runtime.ReadMemStats(&final)
	raisePeak(&s.peakAlloc, final.Alloc)
	raisePeak(&s.peakRSS, getMaxRSS())
}

func main() {
	rowsFlag := flag.Int("rows", 1_000_000, "number of input rows")
	schemeFlag := flag.String("scheme", "minhash", "scheme: minhash or euclidean")
	lenFlag := flag.Int("len", 32, "characters per text row (minhash)")
	ngramFlag := flag.Int("ngram", 3, "n-gram width (minhash)")
	dimsFlag := flag.Int("dims", 64, "vector length (euclidean)")
	bandsFlag := flag.Int("bands", 16, "bands per signature")
	bandSizeFlag := flag.Int("band-size", 4, "hash functions per band")
	bitsFlag := flag.Int("bits", 64, "band value width: 32 or 64")
	workersFlag := flag.Int("workers", 1, "number of parallel workers for hashing")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (hash phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (hash phase only)")
	flag.Parse()

	numRows := *rowsFlag
	bands := lshsig.BandParams{BandCount: *bandsFlag, BandSize: *bandSizeFlag, Seed: 0x1234}
	if *bitsFlag != 32 && *bitsFlag != 64 {
		fmt.Printf("Unsupported bit width: %d (use 32 or 64)\n", *bitsFlag)
		return
	}

	fmt.Println("Generating rows...")
	var textRows []sql.NullString
	var vecRows [][]float64
	switch *schemeFlag {
	case "minhash":
		textRows = make([]sql.NullString, numRows)
		buf := make([]byte, *lenFlag)
		for i := range textRows {
			for j := range buf {
				buf[j] = alphabet[mrand.IntN(len(alphabet))]
			}
			textRows[i] = sql.NullString{String: string(buf), Valid: true}
		}
	case "euclidean":
		vecRows = make([][]float64, numRows)
		for i := range vecRows {
			vecRows[i] = make([]float64, *dimsFlag)
			for j := range vecRows[i] {
				vecRows[i][j] = mrand.NormFloat64()
			}
		}
	default:
		fmt.Printf("Unknown scheme: %s (use 'minhash' or 'euclidean')\n", *schemeFlag)
		return
	}

	// Baseline: one murmur3 pass over every shingle, the floor for any
	// per-shingle hashing scheme.
	var baselineDuration time.Duration
	if textRows != nil {
		fmt.Println("Hashing shingles (baseline)...")
		start := time.Now()
		for _, row := range textRows {
			s := row.String
			for j := 0; j+*ngramFlag <= len(s); j++ {
				murmur3.Sum64WithSeed([]byte(s[j:j+*ngramFlag]), 0x1234)
			}
		}
		baselineDuration = time.Since(start)
	}

	tmpDir, err := os.MkdirTemp("", "bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	tablePath := filepath.Join(tmpDir, "sigs.lsh")

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	var baseline runtime.MemStats
	runtime.ReadMemStats(&baseline)
	baselineRSS := getMaxRSS()
	sampler := startSampler(baseline.Alloc, baselineRSS)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	fmt.Printf("Hashing %d rows (%s, %d-bit, %d workers)...\n", numRows, *schemeFlag, *bitsFlag, *workersFlag)
	h := lshsig.New(lshsig.WithWorkers(*workersFlag))
	spec := lshsig.TableSpec{Bits: *bitsFlag, BandParams: bands}
	hashStart := time.Now()
	var sigs64 [][]uint64
	var sigs32 [][]uint32
	if textRows != nil {
		p := lshsig.MinHashParams{NgramWidth: *ngramFlag, BandParams: bands}
		spec.Kind, spec.NgramWidth = lshsig.TableMinHash, *ngramFlag
		if *bitsFlag == 32 {
			sigs32, err = h.MinHash32(textRows, p)
		} else {
			sigs64, err = h.MinHash(textRows, p)
		}
	} else {
		p := lshsig.EuclideanParams{BucketWidth: 1, BandParams: bands}
		spec.Kind, spec.Dims, spec.BucketWidth = lshsig.TableEuclidean, *dimsFlag, 1
		if *bitsFlag == 32 {
			sigs32, err = h.Euclidean32(vecRows, p)
		} else {
			sigs64, err = h.Euclidean(vecRows, p)
		}
	}
	hashDuration := time.Since(hashStart)

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC() // Get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}
	sampler.stop()

	if err != nil {
		fmt.Printf("Hashing failed: %v\n", err)
		return
	}

	fmt.Println("Writing table...")
	writeStart := time.Now()
	w, err := lshsig.CreateTable(tablePath, spec)
	if err != nil {
		fmt.Printf("CreateTable failed: %v\n", err)
		return
	}
	for i := range numRows {
		if sigs32 != nil {
			err = w.Append32(sigs32[i])
		} else {
			err = w.Append64(sigs64[i])
		}
		if err != nil {
			_ = w.Close() // Best-effort cleanup; primary error is the append failure
			fmt.Printf("Append failed: %v\n", err)
			return
		}
	}
	if err := w.Finish(); err != nil {
		fmt.Printf("Finish failed: %v\n", err)
		return
	}
	writeDuration := time.Since(writeStart)

	tbl, err := lshsig.OpenTable(tablePath)
	if err != nil {
		fmt.Printf("OpenTable failed: %v\n", err)
		return
	}
	defer func() { _ = tbl.Close() }()
	tableSize, err := fileSize(tablePath)
	if err != nil {
		fmt.Printf("Stat failed: %v\n", err)
		return
	}

	readOrder := mrand.Perm(numRows)
	numReads := min(100_000, numRows)
	fmt.Println("Benchmarking row reads...")
	readStart := time.Now()
	for i := range numReads {
		if sigs32 != nil {
			_, _, _ = tbl.Row32(readOrder[i]) // Benchmark: measuring throughput, not correctness
		} else {
			_, _, _ = tbl.Row64(readOrder[i])
		}
	}
	readDuration := time.Since(readStart)
	avgLatency := float64(readDuration.Nanoseconds()) / float64(max(numReads, 1)) / 1000

	stats := h.CacheStats()
	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╗\n")
	fmt.Printf("║ Scheme: %-12s║ Bits: %-8d ║\n", *schemeFlag, *bitsFlag)
	fmt.Printf("╠═════════════════════╬════════════════╣\n")
	fmt.Printf("║ Hash time           ║ %6.2f sec     ║\n", hashDuration.Seconds())
	fmt.Printf("║ Hash throughput     ║ %6.2f M/sec   ║\n", float64(numRows)/hashDuration.Seconds()/1_000_000)
	if textRows != nil {
		fmt.Printf("║ Baseline (murmur3)  ║ %6.2f sec     ║\n", baselineDuration.Seconds())
	}
	fmt.Printf("║ Table write         ║ %6.2f sec     ║\n", writeDuration.Seconds())
	fmt.Printf("║ Table size          ║ %6.1f MB      ║\n", float64(tableSize)/1_000_000)
	fmt.Printf("║ Row read latency    ║ %6.2f μs      ║\n", avgLatency)
	fmt.Printf("║ Family derivations  ║ %6d         ║\n", stats.Derivations)
	fmt.Printf("║ Peak heap memory    ║ %6.1f MB      ║\n", float64(sampler.peakAlloc.Load()-baseline.Alloc)/1_000_000)
	fmt.Printf("║ Peak RSS memory     ║ %6.1f MB      ║\n", float64(sampler.peakRSS.Load()-baselineRSS)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╝\n")
}
