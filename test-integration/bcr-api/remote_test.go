package integration

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stackb/bcr-api/internal/compress"
	"github.com/stackb/bcr-api/internal/service"
	"github.com/stackb/bcr-api/test-integration/bcr-api/helpers"
)

var _ = Describe("Remote Source Integration", Label("remote"), func() {
	var (
		tempDir      string
		upstream     *helpers.UpstreamServer
		serverHelper *helpers.ServerTestHelper
	)

	startServer := func(prefetch bool) {
		configFile := helpers.WriteConfigYAML(tempDir, upstream.URL(), prefetch)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	}

	BeforeEach(func() {
		tempDir = createTempDir("remote-test-")
		serverHelper = nil
		upstream = nil
	})

	AfterEach(func() {
		if serverHelper != nil {
			_ = serverHelper.StopServer()
		}
		if upstream != nil {
			upstream.Close()
		}
		cleanupTempDir(tempDir)
	})

	It("should share one download between concurrent cold requests", func() {
		upstream = helpers.NewUpstreamServer(helpers.CreateTestRegistry(), compress.FormatGzip)
		startServer(false)

		release := upstream.Hold()

		const callers = 16
		var wg sync.WaitGroup
		statuses := make(chan int, callers)
		for range callers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				status, _, _ := serverHelper.GetBody("/api/modules/gazelle", "")
				statuses <- status
			}()
		}

		Eventually(upstream.Hits).Should(Equal(1))
		release()
		wg.Wait()
		close(statuses)

		for status := range statuses {
			Expect(status).To(Equal(http.StatusOK))
		}
		Expect(upstream.Hits()).To(Equal(1))
	})

	It("should not cache failures", func() {
		upstream = helpers.NewUpstreamServer(helpers.CreateTestRegistry(), compress.FormatGzip)
		upstream.SetStatus(http.StatusBadGateway)
		startServer(false)

		status, _, body := serverHelper.GetBody("/api/modules", "")
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(string(body)).To(ContainSubstring("failed to fetch registry"))

		status, _, _ = serverHelper.GetBody("/readiness", "")
		Expect(status).To(Equal(http.StatusServiceUnavailable))

		upstream.SetStatus(http.StatusOK)

		status, _, _ = serverHelper.GetBody("/api/modules", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(upstream.Hits()).To(Equal(3))

		status, _, body = serverHelper.GetBody("/readiness", "")
		Expect(status).To(Equal(http.StatusOK))
		expectReady(body)
	})

	It("should accept zstd snapshots", func() {
		upstream = helpers.NewUpstreamServer(helpers.CreateTestRegistry(), compress.FormatZstd)
		startServer(false)

		status, _, body := serverHelper.GetBody("/api/registry", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"registry_url":"https://bcr.bazel.build","module_count":5}`))
	})

	It("should load the registry at start-up when prefetch is enabled", func() {
		upstream = helpers.NewUpstreamServer(helpers.CreateTestRegistry(), compress.FormatGzip)
		startServer(true)

		Eventually(upstream.Hits, 5*time.Second).Should(Equal(1))

		status, _, _ := serverHelper.GetBody("/api/modules", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(upstream.Hits()).To(Equal(1))
	})

	It("should cap search results at 20", func() {
		upstream = helpers.NewUpstreamServer(helpers.CreateLargeRegistry(25), compress.FormatGzip)
		startServer(false)

		status, _, body := serverHelper.GetBody("/api/search?q=LIB", "")
		Expect(status).To(Equal(http.StatusOK))

		var modules []service.ModuleSummary
		Expect(json.Unmarshal(body, &modules)).To(Succeed())
		Expect(modules).To(HaveLen(service.SearchResultLimit))
		Expect(modules[0].Name).To(Equal("lib_000"))
		Expect(modules[19].Name).To(Equal("lib_019"))

		status, _, body = serverHelper.GetBody("/api/modules", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(json.Unmarshal(body, &modules)).To(Succeed())
		Expect(modules).To(HaveLen(25))
	})
})
