package storage_test

import (
	"context"
	"testing"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/clientstate"
	"github.com/frahmantamala/asset-portal/internal/storage"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

func testKey() *[32]byte {
	var key [32]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	return &key
}

var _ = Describe("GormStore", func() {
	var (
		ctx   context.Context
		db    *gorm.DB
		store *storage.GormStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		db, err = storage.Open(ctx, internal.StorageConfig{Driver: "sqlite", Source: ":memory:"})
		Expect(err).NotTo(HaveOccurred())
		store = storage.NewGormStore(db)
	})

	It("returns an empty token when nothing is stored", func() {
		token, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(BeEmpty())
	})

	It("keeps a single row with the last written token", func() {
		Expect(store.Save(ctx, "first")).To(Succeed())
		Expect(store.Save(ctx, "second")).To(Succeed())

		token, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("second"))

		var count int64
		Expect(db.Model(&clientstate.Entry{}).Count(&count).Error).To(Succeed())
		Expect(count).To(Equal(int64(1)))
	})

	It("clears the stored token", func() {
		Expect(store.Save(ctx, "token")).To(Succeed())
		Expect(store.Clear(ctx)).To(Succeed())

		token, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(BeEmpty())
	})

	It("rejects unknown drivers", func() {
		_, err := storage.Open(ctx, internal.StorageConfig{Driver: "mysql", Source: "x"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("SealedStore", func() {
	var (
		ctx   context.Context
		inner *storage.MemoryStore
		store *storage.SealedStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		inner = storage.NewMemoryStore()
		store = storage.NewSealedStore(inner, testKey())
	})

	It("round-trips the token without storing it in clear", func() {
		Expect(store.Save(ctx, "secret-token")).To(Succeed())

		raw, _ := inner.Load(ctx)
		Expect(raw).NotTo(BeEmpty())
		Expect(raw).NotTo(ContainSubstring("secret-token"))

		token, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("secret-token"))
	})

	It("fails to open a token sealed with another key", func() {
		Expect(store.Save(ctx, "secret-token")).To(Succeed())

		var other [32]byte
		_, err := storage.NewSealedStore(inner, &other).Load(ctx)
		Expect(err).To(MatchError(storage.ErrUnsealFailed))
	})

	It("fails on tampered content", func() {
		Expect(inner.Save(ctx, "not-base64!")).To(Succeed())
		_, err := store.Load(ctx)
		Expect(err).To(MatchError(storage.ErrUnsealFailed))
	})

	It("passes an empty slot through", func() {
		token, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(BeEmpty())
	})
})
