package integration

import (
	"net/http"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stackb/bcr-api/internal/compress"
	"github.com/stackb/bcr-api/test-integration/bcr-api/helpers"
)

var _ = Describe("File Source Integration", Label("file"), func() {
	var (
		tempDir      string
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("file-test-")
		serverHelper = nil
	})

	AfterEach(func() {
		if serverHelper != nil {
			_ = serverHelper.StopServer()
		}
		cleanupTempDir(tempDir)
	})

	start := func(registryURL string) {
		configFile := helpers.WriteConfigYAML(tempDir, registryURL, false)

		var err error
		serverHelper, err = helpers.NewServerTestHelper(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	}

	It("should load the registry from a local path", func() {
		path := helpers.WriteSnapshotFile(tempDir, helpers.CreateTestRegistry(), compress.FormatGzip)
		start(path)

		status, _, body := serverHelper.GetBody("/api/modules/rules_cc", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring(`"C++ Rules for Bazel"`))
	})

	It("should load the registry from a file URL", func() {
		path := helpers.WriteSnapshotFile(tempDir, helpers.CreateTestRegistry(), compress.FormatZstd)
		start("file://" + path)

		status, _, body := serverHelper.GetBody("/readiness", "")
		Expect(status).To(Equal(http.StatusOK))
		expectReady(body)
	})

	It("should report a missing file as not ready", func() {
		start(filepath.Join(tempDir, "missing.pb.gz"))

		status, _, body := serverHelper.GetBody("/readiness", "")
		Expect(status).To(Equal(http.StatusServiceUnavailable))
		Expect(string(body)).To(ContainSubstring("file not found"))

		status, _, _ = serverHelper.GetBody("/api/modules", "")
		Expect(status).To(Equal(http.StatusInternalServerError))
	})
})
