package requestdata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/parisxmas/central-admin/internal/central"
	"go.uber.org/mock/gomock"

	. "github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type formRecord struct {
	Name string `json:"name"`
}

func jsonResponse(body string) *central.Response {
	return &central.Response{Status: 200, Body: []byte(body)}
}

func notFound() (*central.Response, error) {
	resp := &central.Response{Status: 404, Body: []byte(`{"code":404.1,"message":"Not found."}`)}
	return resp, &central.ProblemError{Status: 404, Problem: central.Problem{Code: 404.1, Message: "Not found."}}
}

var _ = Describe("Store", func() {
	var (
		mockCtrl  *gomock.Controller
		requester *MockRequester
		registry  *Registry
		store     *Store
		ctx       context.Context

		reqA = central.GetForm(1, "a")
		reqB = central.GetForm(1, "b")
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		requester = NewMockRequester(mockCtrl)
		registry = NewRegistry().Register("form", JSON[formRecord]())
		store = NewStore(requester, registry)
		ctx = context.Background()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should start idle", func() {
		snap := store.Get("form")
		gomega.Expect(snap.State).To(gomega.Equal(Idle))
		gomega.Expect(snap.DataExists()).To(gomega.BeFalse())
		gomega.Expect(snap.Token).To(gomega.BeZero())
	})

	It("should transform a successful response", func() {
		requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`{"name":"Simple"}`), nil)

		snap, err := store.Request(ctx, "form", reqA)

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(snap.State).To(gomega.Equal(Success))
		gomega.Expect(snap.Data).To(gomega.Equal(formRecord{Name: "Simple"}))
		form, ok := Data[formRecord](store, "form")
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(form.Name).To(gomega.Equal("Simple"))
	})

	It("should decode unregistered keys as generic JSON", func() {
		requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`[1,2]`), nil)

		snap, err := store.Request(ctx, "numbers", reqA)

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(snap.Data).To(gomega.Equal([]any{1.0, 2.0}))
	})

	It("should report initial loading only while there is no data", func() {
		release := make(chan struct{})
		requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`{"name":"one"}`), nil)
		requester.EXPECT().Do(gomock.Any(), reqB).DoAndReturn(
			func(context.Context, central.Request) (*central.Response, error) {
				<-release
				return jsonResponse(`{"name":"two"}`), nil
			})

		_, err := store.Request(ctx, "form", reqA)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		done := make(chan error, 1)
		go func() {
			_, err := store.Request(ctx, "form", reqB)
			done <- err
		}()
		gomega.Eventually(func() State { return store.Get("form").State }).Should(gomega.Equal(Loading))

		snap := store.Get("form")
		gomega.Expect(snap.AwaitingResponse()).To(gomega.BeTrue())
		gomega.Expect(snap.InitiallyLoading()).To(gomega.BeFalse())
		gomega.Expect(snap.Data).To(gomega.Equal(formRecord{Name: "one"}))

		close(release)
		gomega.Eventually(done).Should(gomega.Receive(gomega.BeNil()))
		gomega.Expect(store.Get("form").Data).To(gomega.Equal(formRecord{Name: "two"}))
	})

	It("should discard a superseded response", func() {
		release := make(chan struct{})
		requester.EXPECT().Do(gomock.Any(), reqA).DoAndReturn(
			func(context.Context, central.Request) (*central.Response, error) {
				<-release
				return jsonResponse(`{"name":"old"}`), nil
			})
		requester.EXPECT().Do(gomock.Any(), reqB).Return(jsonResponse(`{"name":"new"}`), nil)

		done := make(chan error, 1)
		go func() {
			_, err := store.Request(ctx, "form", reqA)
			done <- err
		}()
		gomega.Eventually(func() uint64 { return store.Get("form").Token }).Should(gomega.Equal(uint64(1)))

		snap, err := store.Request(ctx, "form", reqB)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(snap.Token).To(gomega.Equal(uint64(2)))

		close(release)
		gomega.Eventually(done).Should(gomega.Receive(gomega.MatchError(ErrStale)))
		gomega.Expect(store.Get("form").Data).To(gomega.Equal(formRecord{Name: "new"}))
		gomega.Expect(store.Get("form").State).To(gomega.Equal(Success))
	})

	It("should discard the response of a canceled request", func() {
		release := make(chan struct{})
		requester.EXPECT().Do(gomock.Any(), reqA).DoAndReturn(
			func(context.Context, central.Request) (*central.Response, error) {
				<-release
				return jsonResponse(`{"name":"late"}`), nil
			})

		done := make(chan error, 1)
		go func() {
			_, err := store.Request(ctx, "form", reqA)
			done <- err
		}()
		gomega.Eventually(func() State { return store.Get("form").State }).Should(gomega.Equal(Loading))

		gomega.Expect(store.Cancel("form")).To(gomega.BeTrue())
		gomega.Expect(store.Cancel("form")).To(gomega.BeFalse())

		close(release)
		gomega.Eventually(done).Should(gomega.Receive(gomega.MatchError(ErrStale)))
		snap := store.Get("form")
		gomega.Expect(snap.State).To(gomega.Equal(Canceled))
		gomega.Expect(snap.DataExists()).To(gomega.BeFalse())
	})

	It("should treat a canceled context as a cancellation", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		requester.EXPECT().Do(gomock.Any(), reqA).Return(nil, &central.TransportError{Err: context.Canceled})

		_, err := store.Request(cctx, "form", reqA)

		gomega.Expect(errors.Is(err, context.Canceled)).To(gomega.BeTrue())
		gomega.Expect(store.Get("form").State).To(gomega.Equal(Canceled))
	})

	It("should record errors and clear data", func() {
		requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`{"name":"Simple"}`), nil)
		requester.EXPECT().Do(gomock.Any(), reqB).DoAndReturn(
			func(context.Context, central.Request) (*central.Response, error) { return notFound() })

		_, err := store.Request(ctx, "form", reqA)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		snap, err := store.Request(ctx, "form", reqB)

		var pe *central.ProblemError
		gomega.Expect(errors.As(err, &pe)).To(gomega.BeTrue())
		gomega.Expect(snap.State).To(gomega.Equal(Error))
		gomega.Expect(snap.Err).To(gomega.Equal(err))
		gomega.Expect(snap.DataExists()).To(gomega.BeFalse())
	})

	It("should keep data on error when asked to", func() {
		requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`{"name":"Simple"}`), nil)
		requester.EXPECT().Do(gomock.Any(), reqB).DoAndReturn(
			func(context.Context, central.Request) (*central.Response, error) { return notFound() })

		_, _ = store.Request(ctx, "form", reqA)
		snap, err := store.Request(ctx, "form", reqB, KeepDataOnError())

		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(snap.State).To(gomega.Equal(Error))
		gomega.Expect(snap.Data).To(gomega.Equal(formRecord{Name: "Simple"}))
	})

	It("should report transform failures as errors", func() {
		requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`not json`), nil)

		snap, err := store.Request(ctx, "form", reqA)

		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(snap.State).To(gomega.Equal(Error))
	})

	It("should fulfill matching problems through the transform", func() {
		requester.EXPECT().Do(gomock.Any(), reqA).DoAndReturn(
			func(context.Context, central.Request) (*central.Response, error) { return notFound() })

		transform := func(resp *central.Response) (any, error) {
			if resp.Status == 404 {
				return "not configured", nil
			}
			return "configured", nil
		}
		snap, err := store.Request(ctx, "backupsConfig", reqA,
			FulfillProblem(func(p central.Problem) bool { return p.Is(404.1) }),
			WithTransform(transform))

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(snap.State).To(gomega.Equal(Success))
		gomega.Expect(snap.Data).To(gomega.Equal("not configured"))
	})

	It("should refresh the last request and keep data on failure", func() {
		gomock.InOrder(
			requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`{"name":"Simple"}`), nil),
			requester.EXPECT().Do(gomock.Any(), reqA).DoAndReturn(
				func(context.Context, central.Request) (*central.Response, error) { return notFound() }),
		)

		_, err := store.Request(ctx, "form", reqA)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		snap, err := store.Refresh(ctx, "form")

		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(snap.State).To(gomega.Equal(Error))
		gomega.Expect(snap.Data).To(gomega.Equal(formRecord{Name: "Simple"}))
	})

	It("should refuse to refresh a key never requested", func() {
		_, err := store.Refresh(ctx, "form")
		gomega.Expect(err).To(gomega.MatchError(ErrNotRequested))
	})

	It("should reset data and keep tokens increasing", func() {
		requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`{"name":"Simple"}`), nil)

		_, _ = store.Request(ctx, "form", reqA)
		store.Reset("form")

		snap := store.Get("form")
		gomega.Expect(snap.State).To(gomega.Equal(Idle))
		gomega.Expect(snap.DataExists()).To(gomega.BeFalse())
		gomega.Expect(snap.Token).To(gomega.Equal(uint64(2)))

		_, err := store.Refresh(ctx, "form")
		gomega.Expect(err).To(gomega.MatchError(ErrNotRequested))
	})

	Context("when navigating", func() {
		var (
			formRoute = Route{
				Name:   "FormOverview",
				Params: map[string]string{"projectId": "1", "xmlFormId": "a"},
			}
			submissionsRoute = Route{
				Name:   "FormSubmissions",
				Params: map[string]string{"projectId": "1", "xmlFormId": "a"},
				Preserve: map[Key][]string{
					"form":        {"projectId", "xmlFormId"},
					"currentUser": nil,
				},
			}
		)

		BeforeEach(func() {
			requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`{"name":"Simple"}`), nil).AnyTimes()
			requester.EXPECT().Do(gomock.Any(), reqB).Return(jsonResponse(`{"id":1}`), nil).AnyTimes()
		})

		It("should keep preserved keys when params match", func() {
			_, _ = store.Request(ctx, "form", reqA)
			_, _ = store.Request(ctx, "currentUser", reqB)
			_, _ = store.Request(ctx, "attachments", reqB)

			reset := store.Navigate(formRoute, submissionsRoute)

			gomega.Expect(reset).To(gomega.ConsistOf(Key("attachments")))
			gomega.Expect(store.Get("form").DataExists()).To(gomega.BeTrue())
			gomega.Expect(store.Get("currentUser").DataExists()).To(gomega.BeTrue())
			gomega.Expect(store.Get("attachments").State).To(gomega.Equal(Idle))
		})

		It("should reset preserved keys when params change", func() {
			_, _ = store.Request(ctx, "form", reqA)

			other := submissionsRoute
			other.Params = map[string]string{"projectId": "1", "xmlFormId": "b"}
			reset := store.Navigate(formRoute, other)

			gomega.Expect(reset).To(gomega.ConsistOf(Key("form")))
			gomega.Expect(store.Get("form").DataExists()).To(gomega.BeFalse())
		})

		It("should discard responses still in flight for cleared keys", func() {
			release := make(chan struct{})
			slow := central.GetForm(2, "slow")
			requester.EXPECT().Do(gomock.Any(), slow).DoAndReturn(
				func(context.Context, central.Request) (*central.Response, error) {
					<-release
					return jsonResponse(`{"name":"slow"}`), nil
				})

			done := make(chan error, 1)
			go func() {
				_, err := store.Request(ctx, "attachments", slow)
				done <- err
			}()
			gomega.Eventually(func() State { return store.Get("attachments").State }).Should(gomega.Equal(Loading))

			gomega.Expect(store.Navigate(formRoute, submissionsRoute)).To(gomega.ConsistOf(Key("attachments")))
			close(release)

			gomega.Eventually(done).Should(gomega.Receive(gomega.MatchError(ErrStale)))
			gomega.Expect(store.Get("attachments").DataExists()).To(gomega.BeFalse())
		})
	})

	It("should patch existing data only", func() {
		gomega.Expect(errors.Is(store.Patch("form", func(v any) (any, error) { return v, nil }), ErrNoData)).To(gomega.BeTrue())

		store.Set("form", formRecord{Name: "Simple"})
		err := PatchAs(store, "form", func(f formRecord) formRecord {
			f.Name = "Renamed"
			return f
		})

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(store.Get("form").Data).To(gomega.Equal(formRecord{Name: "Renamed"}))
	})

	It("should cancel every in-flight request", func() {
		release := make(chan struct{})
		requester.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, central.Request) (*central.Response, error) {
				<-release
				return jsonResponse(`{}`), nil
			}).Times(2)

		var wg sync.WaitGroup
		for _, key := range []Key{"form", "project"} {
			wg.Add(1)
			go func(key Key) {
				defer wg.Done()
				_, _ = store.Request(ctx, key, reqA)
			}(key)
		}
		gomega.Eventually(func() int {
			n := 0
			for _, s := range store.Snapshots() {
				if s.AwaitingResponse() {
					n++
				}
			}
			return n
		}).Should(gomega.Equal(2))

		gomega.Expect(store.CancelAll()).To(gomega.Equal([]Key{"form", "project"}))
		close(release)
		wg.Wait()
		gomega.Expect(store.Get("form").State).To(gomega.Equal(Canceled))
		gomega.Expect(store.Get("project").State).To(gomega.Equal(Canceled))
	})

	It("should report transitions to observers in order", func() {
		var (
			mu   sync.Mutex
			seen []Transition
		)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		store = NewStore(requester, registry, WithClock(func() time.Time { return now }),
			WithObserver(ObserverFunc(func(t Transition) {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, t)
			})))
		requester.EXPECT().Do(gomock.Any(), reqA).Return(jsonResponse(`{"name":"Simple"}`), nil)

		_, _ = store.Request(ctx, "form", reqA)
		store.Reset("form")

		mu.Lock()
		defer mu.Unlock()
		gomega.Expect(seen).To(gomega.HaveLen(3))
		gomega.Expect([]State{seen[0].To, seen[1].To, seen[2].To}).To(gomega.Equal([]State{Loading, Success, Idle}))
		gomega.Expect(seen[0].Token).To(gomega.Equal(uint64(1)))
		gomega.Expect(seen[2].Token).To(gomega.Equal(uint64(2)))
		gomega.Expect(seen[1].At).To(gomega.Equal(now))
	})
})
