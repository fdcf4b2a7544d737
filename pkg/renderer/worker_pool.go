package renderer

import (
	"context"
	"runtime"
	"sync"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/geometry"
)

// RowTask represents a scanline rendering task for the worker pool
type RowTask struct {
	Row int
}

// RowResult contains the colors of one finished scanline
type RowResult struct {
	Row    int
	Colors []core.Vec3
	Err    error
}

// WorkerPool manages parallel row rendering
type WorkerPool struct {
	taskQueue   chan RowTask
	resultQueue chan RowResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual row rendering tasks
type Worker struct {
	ID          int
	raytracer   *Raytracer
	world       geometry.Hittable
	taskQueue   chan RowTask
	resultQueue chan RowResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// Both queues hold a full frame of rows so submitting never blocks.
func NewWorkerPool(raytracer *Raytracer, world geometry.Hittable, rows int, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RowTask, rows),
		resultQueue: make(chan RowResult, rows),
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			raytracer:   raytracer,
			world:       world,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop closes the task queue and waits for the workers to drain it
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a row task to the worker pool
func (wp *WorkerPool) SubmitTask(task RowTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed row in completion order
func (wp *WorkerPool) GetResult() (RowResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop. Once ctx is cancelled the remaining tasks are
// answered with the context error instead of being traced.
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			w.resultQueue <- RowResult{Row: task.Row, Err: err}
			continue
		}

		w.resultQueue <- RowResult{
			Row:    task.Row,
			Colors: w.raytracer.RenderRow(task.Row, w.world),
		}
	}
}

// rowReorderBuffer holds finished rows until every earlier row has been emitted
type rowReorderBuffer struct {
	pending map[int][]core.Vec3
	next    int
}

func newRowReorderBuffer() *rowReorderBuffer {
	return &rowReorderBuffer{pending: make(map[int][]core.Vec3)}
}

// Put stores a finished row
func (b *rowReorderBuffer) Put(row int, colors []core.Vec3) {
	b.pending[row] = colors
}

// Next pops the next row in scan order if it has arrived
func (b *rowReorderBuffer) Next() (int, []core.Vec3, bool) {
	colors, ok := b.pending[b.next]
	if !ok {
		return 0, nil, false
	}
	delete(b.pending, b.next)
	row := b.next
	b.next++
	return row, colors, true
}
