package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/mentorpulse/internal/adapters/mq/queue"
	worker "github.com/okian/mentorpulse/internal/adapters/mq/worker"
	"github.com/okian/mentorpulse/internal/adapters/repository"
	"github.com/okian/mentorpulse/internal/domain/indicators"
	model "github.com/okian/mentorpulse/internal/domain/model"
	logging "github.com/okian/mentorpulse/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 200)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(studentID string) { mq.jobs <- queue.Job{StudentID: studentID} }

type mockLoader struct {
	mu     sync.RWMutex
	data   map[string]repository.StudentData
	errors map[string]error
}

func newMockLoader() *mockLoader {
	return &mockLoader{data: make(map[string]repository.StudentData), errors: make(map[string]error)}
}

func (ml *mockLoader) Student(_ context.Context, id string) (repository.StudentData, error) {
	ml.mu.RLock()
	defer ml.mu.RUnlock()
	if err, ok := ml.errors[id]; ok {
		return repository.StudentData{}, err
	}
	d, ok := ml.data[id]
	if !ok {
		return repository.StudentData{}, repository.ErrNotFound
	}
	return d, nil
}

func (ml *mockLoader) present(id string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.data[id] = repository.StudentData{
		Mentoring: []model.MentoringRecord{
			{StudentID: id, StudentName: "Name " + id, Organization: "Acme", Attendance: model.AttendancePresent, Task: model.TaskDelivered},
		},
	}
}

func (ml *mockLoader) presentAt(id, name string, revision uint64) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.data[id] = repository.StudentData{
		Mentoring: []model.MentoringRecord{
			{StudentID: id, StudentName: name, Organization: "Acme", Attendance: model.AttendancePresent, Task: model.TaskDelivered},
		},
		Revision: revision,
	}
}

func (ml *mockLoader) planOnly(id string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.data[id] = repository.StudentData{Mandatory: []model.MandatoryCompetency{{Code: "x"}}}
}

func (ml *mockLoader) setError(id string, err error) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	ml.errors[id] = err
}

type mockUpdater struct {
	mu      sync.RWMutex
	updates map[string]indicators.StudentIndicators
	errors  map[string]error
}

func newMockUpdater() *mockUpdater {
	return &mockUpdater{updates: make(map[string]indicators.StudentIndicators), errors: make(map[string]error)}
}

func (mu *mockUpdater) UpsertAt(_ context.Context, s indicators.StudentIndicators, _ uint64) (bool, error) {
	mu.mu.Lock()
	defer mu.mu.Unlock()
	if err, ok := mu.errors[s.StudentID]; ok {
		return false, err
	}
	mu.updates[s.StudentID] = s
	return true, nil
}

func (mu *mockUpdater) setError(id string, err error) {
	mu.mu.Lock()
	defer mu.mu.Unlock()
	mu.errors[id] = err
}

func (mu *mockUpdater) get(id string) (indicators.StudentIndicators, bool) {
	mu.mu.RLock()
	defer mu.mu.RUnlock()
	s, ok := mu.updates[id]
	return s, ok
}

func (mu *mockUpdater) count() int {
	mu.mu.RLock()
	defer mu.mu.RUnlock()
	return len(mu.updates)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		log := logging.Nop()
		q := newMockQueue()
		loader := newMockLoader()
		updater := newMockUpdater()
		calc := indicators.NewCalculator()

		w := worker.NewInMemoryWorker(q, loader, calc, updater, worker.WithName("test-worker"), worker.WithLogger(log))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job for a known student arrives", func() {
			loader.present("aluno1")
			q.add("aluno1")

			convey.Convey("Then the computed indicators are stored", func() {
				convey.So(eventually(func() bool { _, ok := updater.get("aluno1"); return ok }), convey.ShouldBeTrue)
				s, _ := updater.get("aluno1")
				convey.So(s.StudentName, convey.ShouldEqual, "Name aluno1")
				convey.So(s.MentoringAttendance, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading fails", func() {
			loader.setError("aluno2", errors.New("boom"))
			q.add("aluno2")
			time.Sleep(30 * time.Millisecond)

			convey.Convey("Then nothing is stored", func() {
				_, ok := updater.get("aluno2")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the student has only a plan", func() {
			loader.planOnly("aluno3")
			q.add("aluno3")
			time.Sleep(30 * time.Millisecond)

			convey.Convey("Then the student is not added to the table", func() {
				_, ok := updater.get("aluno3")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When storing fails", func() {
			loader.present("aluno4")
			updater.setError("aluno4", errors.New("table error"))
			loader.present("aluno1")
			q.add("aluno4")
			q.add("aluno1")

			convey.Convey("Then the worker keeps going", func() {
				convey.So(eventually(func() bool { _, ok := updater.get("aluno1"); return ok }), convey.ShouldBeTrue)
				_, ok := updater.get("aluno4")
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestWorkerStaleSnapshot(t *testing.T) {
	convey.Convey("Given a table already holding a newer result", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		q := newMockQueue()
		loader := newMockLoader()
		table := repository.NewTreapTable(ctx)
		defer table.Close()

		newer := indicators.StudentIndicators{StudentID: "aluno1", StudentName: "Newer", FinalGrade: 9}
		stored, err := table.UpsertAt(ctx, newer, 7)
		convey.So(err, convey.ShouldBeNil)
		convey.So(stored, convey.ShouldBeTrue)

		w := worker.NewInMemoryWorker(q, loader, indicators.NewCalculator(), table, worker.WithLogger(logging.Nop()))
		go w.Run(ctx)

		convey.Convey("When a worker finishes with records from an older revision", func() {
			loader.presentAt("aluno1", "Older", 3)
			q.add("aluno1")
			loader.presentAt("marker", "Marker", 8)
			q.add("marker")

			convey.Convey("Then the newer result is kept", func() {
				convey.So(eventually(func() bool { _, err := table.Get(ctx, "marker"); return err == nil }), convey.ShouldBeTrue)
				got, err := table.Get(ctx, "aluno1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.StudentName, convey.ShouldEqual, "Newer")
			})
		})

		convey.Convey("When a worker finishes with records from a newer revision", func() {
			loader.presentAt("aluno1", "Latest", 9)
			q.add("aluno1")

			convey.Convey("Then the result replaces the stored one", func() {
				convey.So(eventually(func() bool {
					got, _ := table.Get(ctx, "aluno1")
					return got.StudentName == "Latest"
				}), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		log := logging.Nop()
		q := newMockQueue()
		loader := newMockLoader()
		updater := newMockUpdater()
		calc := indicators.NewCalculator()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, loader, calc, updater, worker.WithLogger(log))

			convey.Convey("Then it still has workers", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When many jobs arrive concurrently", func() {
			pool := worker.NewPool(4, q, loader, calc, updater, worker.WithLogger(log))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			const total = 100
			var wg sync.WaitGroup
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for j := 0; j < total/5; j++ {
						id := fmt.Sprintf("aluno-%d-%d", p, j)
						loader.present(id)
						q.add(id)
					}
				}(i)
			}
			wg.Wait()

			convey.Convey("Then every student is recomputed", func() {
				convey.So(eventually(func() bool { return updater.count() == total }), convey.ShouldBeTrue)
				convey.So(eventually(func() bool { return pool.Processed() == total }), convey.ShouldBeTrue)
				convey.So(pool.Size(), convey.ShouldEqual, 4)
			})

			convey.Convey("And shutdown closes the queue and stops the workers", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()

				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When stopped", func() {
			pool := worker.NewPool(2, q, loader, calc, updater, worker.WithLogger(log))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)
			time.Sleep(10 * time.Millisecond)
			pool.Stop()

			convey.Convey("Then later jobs are not processed", func() {
				loader.present("late")
				q.add("late")
				time.Sleep(30 * time.Millisecond)
				_, ok := updater.get("late")
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(pool.Active(), convey.ShouldEqual, 0)
			})
		})
	})
}
