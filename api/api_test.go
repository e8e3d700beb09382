package api_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-portal/api"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAPI Document Suite")
}

var _ = Describe("OpenAPI document", func() {
	It("loads and validates", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Info.Title).To(Equal("Asset Portal"))
	})

	It("describes every guarded action endpoint", func() {
		doc, err := api.Load(context.Background())
		Expect(err).NotTo(HaveOccurred())
		for _, path := range []string{
			"/approvals/{kind}/{id}/decision",
			"/privileges/{userID}",
			"/privileges/{userID}/{privilegeID}",
			"/assets/{id}/status",
			"/users/{userID}/role",
		} {
			Expect(doc.Paths.Value(path)).NotTo(BeNil(), path)
		}
	})
})
