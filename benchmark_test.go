package seekable_stream_go

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func producer(stream LockingStreamInterface, iterations int, data []byte, wg *sync.WaitGroup, totalBytes *int) {
	defer wg.Done()

	for i := 0; i < iterations; i++ {
		if err := stream.Write(context.Background(), data); err != nil {
			continue
		}

		*totalBytes += len(data)
	}
}

func consumer(stream LockingStreamInterface, iterations int, dataSize int, wg *sync.WaitGroup, totalBytes *int) {
	defer wg.Done()

	p := make([]byte, dataSize)

	for i := 0; i < iterations; i++ {
		if err := stream.Read(context.Background(), p, true); err != nil {
			continue
		}

		*totalBytes += len(p)
	}
}

func benchmarkLockingStream(b *testing.B, stream LockingStreamInterface, iterations int, dataSize int) {
	var wg sync.WaitGroup

	data := make([]byte, dataSize)

	start := time.Now()

	var bytesWritten, bytesRead int

	wg.Add(2)
	go producer(stream, iterations, data, &wg, &bytesWritten)
	go consumer(stream, iterations, dataSize, &wg, &bytesRead)
	wg.Wait()

	elapsed := time.Since(start)

	b.ReportMetric(float64(bytesWritten)/(1<<30)/elapsed.Seconds(), "write-GB/s")
	b.ReportMetric(float64(bytesRead)/(1<<30)/elapsed.Seconds(), "read-GB/s")
}

func BenchmarkLockingStream(b *testing.B) {
	const dataSize = 1024
	const capacity = 1 << 20

	stream, err := NewLockingStream(&Config{Capacity: capacity})
	if err != nil {
		b.Fatal(err)
	}
	defer stream.Close()

	benchmarkLockingStream(b, stream, b.N, dataSize)
}

func BenchmarkStreamWriteRead(b *testing.B) {
	for _, size := range []int{16, 1024, 4000} {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			stream, err := New(&Config{Capacity: 4096})
			if err != nil {
				b.Fatal(err)
			}

			in := make([]byte, size)
			out := make([]byte, size)

			b.SetBytes(int64(size))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := stream.Write(in); err != nil {
					b.Fatal(err)
				}
				if err := stream.Read(out, true); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
