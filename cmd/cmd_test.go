package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-portal/internal"
	approvalmodel "github.com/frahmantamala/asset-portal/internal/core/datamodel/approval"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("render", func() {
	var (
		out bytes.Buffer
		tbl *table
		row = map[string]string{"name": "laptop"}
	)

	BeforeEach(func() {
		out.Reset()
		tbl = &table{header: []string{"ID", "NAME"}}
		tbl.add("1", "laptop")
		DeferCleanup(func(prev string) { outputFormat = prev }, outputFormat)
	})

	It("aligns table columns", func() {
		outputFormat = formatTable
		Expect(render(&out, row, tbl)).To(Succeed())
		Expect(out.String()).To(Equal("ID  NAME\n1   laptop\n"))
	})

	It("writes indented json", func() {
		outputFormat = formatJSON
		Expect(render(&out, row, tbl)).To(Succeed())
		Expect(out.String()).To(Equal("{\n  \"name\": \"laptop\"\n}\n"))
	})

	It("writes yaml", func() {
		outputFormat = formatYAML
		Expect(render(&out, row, tbl)).To(Succeed())
		Expect(out.String()).To(Equal("name: laptop\n"))
	})
})

var _ = Describe("argument parsing", func() {
	It("accepts positive ids only", func() {
		id, err := parseID("42")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(42)))

		_, err = parseID("0")
		Expect(err).To(HaveOccurred())
		_, err = parseID("abc")
		Expect(err).To(HaveOccurred())
	})

	It("maps decisions case-insensitively", func() {
		d, err := parseDecision("Approve")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(approvalmodel.DecisionApprove))

		d, err = parseDecision("rejected")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(approvalmodel.DecisionReject))

		_, err = parseDecision("maybe")
		Expect(err).To(MatchError(internal.ErrInvalidStatus))
	})

	It("requires the subject kind to be investment or request", func() {
		k, err := parseKind("Investment")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(approvalmodel.KindInvestment))

		k, err = parseKind("request")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(approvalmodel.KindRequest))

		_, err = parseKind("7")
		Expect(err).To(MatchError(internal.ErrInvalidKind))
	})

	It("parses optional dates", func() {
		t, err := parseDate("start", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(BeNil())

		t, err = parseDate("start", "2026-03-01")
		Expect(err).NotTo(HaveOccurred())
		Expect(*t).To(Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
		Expect(formatDate(t)).To(Equal("2026-03-01"))

		_, err = parseDate("end", "01/03/2026")
		Expect(err).To(MatchError(ContainSubstring("--end")))
	})
})

var _ = Describe("loadConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("falls back to defaults without a config file", func() {
		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Backend.BaseURL).To(Equal(internal.Defaults().Backend.BaseURL))
		Expect(cfg.Notifications.PollInterval).To(Equal(time.Minute))
	})

	It("reads config.yml", func() {
		content := []byte("backend:\n  base_url: https://assets.example.com/api/\n  timeout: 3s\nnotifications:\n  poll_interval: 30s\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600)).To(Succeed())

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Backend.BaseURL).To(Equal("https://assets.example.com/api/"))
		Expect(cfg.Backend.Timeout).To(Equal(3 * time.Second))
		Expect(cfg.Notifications.PollInterval).To(Equal(30 * time.Second))
		Expect(cfg.Server.Port).To(Equal(8090))
	})

	It("rejects an invalid config", func() {
		content := []byte("backend:\n  base_url: ftp://nowhere\n")
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o600)).To(Succeed())

		_, err := loadConfig(dir)
		Expect(err).To(MatchError(ContainSubstring("base_url must be http or https")))
	})

	It("lets ENV_ variables override the file", func() {
		GinkgoT().Setenv("ENV_BACKEND_BASE_URL", "http://override:9000/")
		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Backend.BaseURL).To(Equal("http://override:9000/"))
	})
})
