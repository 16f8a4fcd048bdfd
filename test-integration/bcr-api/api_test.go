package integration

import (
	"encoding/json"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stackb/bcr-api/internal/compress"
	"github.com/stackb/bcr-api/internal/registry"
	"github.com/stackb/bcr-api/internal/service"
	"github.com/stackb/bcr-api/test-integration/bcr-api/helpers"
)

var _ = Describe("Registry API", Label("api"), func() {
	var (
		tempDir      string
		upstream     *helpers.UpstreamServer
		serverHelper *helpers.ServerTestHelper
		testRegistry *registry.Registry
	)

	BeforeEach(func() {
		tempDir = createTempDir("api-test-")
		testRegistry = helpers.CreateTestRegistry()
		upstream = helpers.NewUpstreamServer(testRegistry, compress.FormatGzip)

		configFile := helpers.WriteConfigYAML(tempDir, upstream.URL(), false)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		_ = serverHelper.StopServer()
		upstream.Close()
		cleanupTempDir(tempDir)
	})

	Context("Listing modules", func() {
		It("should return a summary of every module in registry order", func() {
			status, contentType, body := serverHelper.GetBody("/api/modules", "")
			Expect(status).To(Equal(http.StatusOK))
			Expect(contentType).To(Equal("application/json"))

			var modules []service.ModuleSummary
			Expect(json.Unmarshal(body, &modules)).To(Succeed())
			Expect(modules).To(HaveLen(len(testRegistry.Modules)))
			Expect(modules[0]).To(Equal(service.ModuleSummary{
				Name:          "rules_go",
				LatestVersion: "0.50.1",
				Description:   "Go rules for Bazel",
			}))
			Expect(modules[3]).To(Equal(service.ModuleSummary{
				Name:          "zlib",
				LatestVersion: "1.3.1.bcr.3",
				Description:   "",
			}))
		})

		It("should download the snapshot only once", func() {
			for range 5 {
				status, _, _ := serverHelper.GetBody("/api/modules", "")
				Expect(status).To(Equal(http.StatusOK))
			}
			Expect(upstream.Hits()).To(Equal(1))
		})
	})

	Context("Getting a module", func() {
		It("should return the module as JSON by default", func() {
			status, contentType, body := serverHelper.GetBody("/api/modules/rules_go", "")
			Expect(status).To(Equal(http.StatusOK))
			Expect(contentType).To(Equal("application/json"))

			var module registry.Module
			Expect(json.Unmarshal(body, &module)).To(Succeed())
			Expect(module.Name).To(Equal("rules_go"))
			Expect(module.Versions).To(HaveLen(3))
			Expect(module.YankedVersions).To(HaveKeyWithValue("0.50.0", "broken release"))
		})

		It("should return the module in protobuf when asked for it", func() {
			status, contentType, body := serverHelper.GetBody("/api/modules/rules_go", "application/x-protobuf, application/json;q=0.5")
			Expect(status).To(Equal(http.StatusOK))
			Expect(contentType).To(Equal("application/protobuf"))

			var module registry.Module
			Expect(module.UnmarshalBinary(body)).To(Succeed())
			Expect(&module).To(Equal(testRegistry.Modules[0]))
		})

		It("should return 404 for unknown or differently cased names", func() {
			for _, name := range []string{"rules_rust", "Rules_Go"} {
				status, _, body := serverHelper.GetBody("/api/modules/"+name, "application/protobuf")
				Expect(status).To(Equal(http.StatusNotFound))
				Expect(body).To(MatchJSON(`{"error":"Module not found"}`))
			}
		})
	})

	Context("Searching modules", func() {
		It("should match names and descriptions case-insensitively", func() {
			status, _, body := serverHelper.GetBody("/api/search?q=GO", "")
			Expect(status).To(Equal(http.StatusOK))

			var modules []service.ModuleSummary
			Expect(json.Unmarshal(body, &modules)).To(Succeed())

			names := make([]string, 0, len(modules))
			for _, m := range modules {
				names = append(names, m.Name)
			}
			Expect(names).To(Equal([]string{"rules_go", "gazelle"}))
		})

		It("should return an empty array when nothing matches", func() {
			status, _, body := serverHelper.GetBody("/api/search?q=haskell", "")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[]`))
		})
	})

	Context("Registry information", func() {
		It("should return a JSON summary", func() {
			status, _, body := serverHelper.GetBody("/api/registry", "")
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"registry_url":"https://bcr.bazel.build","module_count":5}`))
		})

		It("should return the full registry in protobuf", func() {
			status, contentType, body := serverHelper.GetBody("/api/registry", "application/protobuf")
			Expect(status).To(Equal(http.StatusOK))
			Expect(contentType).To(Equal("application/protobuf"))

			decoded, err := registry.Decode(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(testRegistry))
		})
	})

	Context("Build information", func() {
		It("should report the version fields", func() {
			status, _, body := serverHelper.GetBody("/api/version", "")
			Expect(status).To(Equal(http.StatusOK))

			var info map[string]string
			Expect(json.Unmarshal(body, &info)).To(Succeed())
			Expect(info).To(HaveKey("version"))
			Expect(info).To(HaveKey("build_timestamp"))
			Expect(info).To(HaveKey("git_commit"))
			Expect(info).To(HaveKey("git_branch"))
			Expect(upstream.Hits()).To(Equal(0), "version must not load the registry")
		})
	})
})
