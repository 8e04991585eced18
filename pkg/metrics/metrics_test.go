package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then metric names carry the namespace and the constant labels", func() {
				So(manager, ShouldNotBeNil)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)

				manager.searchTermsSubmitted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
					if f.GetName() == "test_namespace_search_terms_submitted_total" {
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(names["test_namespace_search_terms_submitted_total"], ShouldBeTrue)
			})
		})

		Convey("When invalid option values are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(-time.Second),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "heroes")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Reset(func() { Configure() })

		Convey("When it is reconfigured with a namespace, labels and buckets", func() {
			m := Configure(
				WithNamespace("herotest"),
				WithCustomLabels(map[string]string{"env": "ci"}),
				WithHistogramBuckets([]float64{1, 2}),
				WithRefreshInterval(time.Second),
			)
			RecordSearchTermSubmitted()
			RecordClientLatency("getHeroes", 1.5)

			Convey("Then the served registry exposes the renamed metrics", func() {
				So(global(), ShouldEqual, m)
				So(m.RefreshInterval(), ShouldEqual, time.Second)
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
					if f.GetName() == "herotest_client_call_duration_milliseconds" {
						So(f.GetMetric()[0].GetHistogram().GetBucket(), ShouldHaveLength, 2)
					}
				}
				So(names["herotest_search_terms_submitted_total"], ShouldBeTrue)
				So(names["herotest_client_call_duration_milliseconds"], ShouldBeTrue)
				So(names["heroes_search_terms_submitted_total"], ShouldBeFalse)
			})
		})

		Convey("When metrics are disabled", func() {
			Configure(WithMetricsEnabled(false))
			So(func() {
				RecordSearchTermSubmitted()
				RecordClientCall("getHeroes", OutcomeOK)
			}, ShouldNotPanic)

			Convey("Then nothing is exported", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording client calls", func() {
			before := testutil.ToFloat64(global().clientCalls.WithLabelValues("getHero", OutcomeFailed))
			RecordClientCall("getHero", OutcomeFailed)
			RecordClientLatency("getHero", 12)

			Convey("Then the labelled counter grows by one", func() {
				after := testutil.ToFloat64(global().clientCalls.WithLabelValues("getHero", OutcomeFailed))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When recording pipeline stages", func() {
			before := testutil.ToFloat64(global().searchResultsSuperseded)
			So(func() {
				RecordSearchTermSubmitted()
				RecordSearchTermDebounced()
				RecordSearchTermDeduplicated()
				RecordSearchBlankTerm()
				RecordSearchFetchStarted()
				RecordSearchResultSuperseded()
				RecordSearchResultDelivered()
				AddSearchSubscriptions(1)
				AddSearchSubscriptions(-1)
			}, ShouldNotPanic)

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(global().searchResultsSuperseded)-before, ShouldEqual, 1)
			})
		})

		Convey("When recording backend, store and seeding metrics", func() {
			So(func() {
				RecordHTTPRequest("heroes", "GET", "200")
				RecordHTTPRequestDuration("heroes", "GET", "200", 3)
				RecordErrorByEndpoint("heroes", "GET", "not_found")
				RecordHTTPRateLimited()
				AddWebsocketSessions(1)
				AddWebsocketSessions(-1)
				RecordStoreLatency("memory", "list", 0.1)
				UpdateStoredHeroes(10)
				UpdateQueueSize(1)
				UpdateQueueCapacity(10)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(2)
				RecordSeedResult(OutcomeOK)
				RecordMessageLogged()
				RecordMessageEvicted()
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(global().storedHeroes), ShouldEqual, 10)
				So(testutil.ToFloat64(global().queueCapacity), ShouldEqual, 10)
			})
		})

		Convey("When gathering the custom registry", func() {
			_, err := GetRegistry().Gather()

			Convey("Then it succeeds", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(global().searchFetchesStarted)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					RecordSearchFetchStarted()
				}
			}()
		}
		wg.Wait()

		Convey("Then every increment is counted", func() {
			So(testutil.ToFloat64(global().searchFetchesStarted)-before, ShouldEqual, 1000)
		})
	})
}
