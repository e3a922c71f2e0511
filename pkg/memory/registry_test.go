package memory_test

import (
	"context"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
)

func strptr(s string) *string { return &s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ = Describe("ProfileRegistry", func() {
	var (
		registry *memory.ProfileRegistry
		store    *inmemory.Driver
		ctx      context.Context
	)

	BeforeEach(func() {
		store = inmemory.NewDriver()
		registry = memory.NewProfileRegistry(store, discardLogger())
		ctx = context.Background()
	})

	Describe("Lookup", func() {
		It("reports absent for an unknown phone", func() {
			_, ok := registry.Lookup(ctx, "+15550001111")
			Expect(ok).To(BeFalse())
		})

		It("returns the phone for an existing profile", func() {
			Expect(store.CreateProfile(ctx, "+15550001111", nil)).To(Succeed())

			id, ok := registry.Lookup(ctx, "+15550001111")
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal("+15550001111"))
		})
	})

	Describe("CreateOrUpdate", func() {
		It("succeeds trivially with nil traits and performs no write", func() {
			Expect(registry.CreateOrUpdate(ctx, "+15550001111", nil)).To(BeTrue())

			_, ok := registry.Lookup(ctx, "+15550001111")
			Expect(ok).To(BeFalse())
		})

		It("creates the profile when it does not exist", func() {
			ok := registry.CreateOrUpdate(ctx, "+15550001111", &customer.Traits{Name: strptr("Ana")})
			Expect(ok).To(BeTrue())

			p, err := store.GetProfile(ctx, "+15550001111")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name).To(HaveValue(Equal("Ana")))
		})

		It("leaves omitted fields unchanged on update", func() {
			traits := &customer.Traits{Name: strptr("Ana"), Email: strptr("ana@example.com")}
			Expect(store.CreateProfile(ctx, "+15550001111", traits)).To(Succeed())

			ok := registry.CreateOrUpdate(ctx, "+15550001111", &customer.Traits{Name: strptr("Ana Torres")})
			Expect(ok).To(BeTrue())

			p, err := store.GetProfile(ctx, "+15550001111")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name).To(HaveValue(Equal("Ana Torres")))
			Expect(p.Email).To(HaveValue(Equal("ana@example.com")))
		})
	})

	Describe("GetOrCreate", func() {
		Context("when the profile already exists", func() {
			BeforeEach(func() {
				Expect(store.CreateProfile(ctx, "+15550001111", nil)).To(Succeed())
			})

			It("returns the existing identifier without creating a duplicate", func() {
				id, ok := registry.GetOrCreate(ctx, "+15550001111", nil)
				Expect(ok).To(BeTrue())
				Expect(id).To(Equal("+15550001111"))

				profiles, err := store.ListProfiles(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(profiles).To(HaveLen(1))
			})

			It("applies supplied traits to the existing profile", func() {
				_, ok := registry.GetOrCreate(ctx, "+15550001111", &customer.Traits{Email: strptr("ana@example.com")})
				Expect(ok).To(BeTrue())

				p, err := store.GetProfile(ctx, "+15550001111")
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Email).To(HaveValue(Equal("ana@example.com")))
			})
		})

		Context("when the profile is absent", func() {
			It("creates exactly one row with the supplied traits", func() {
				id, ok := registry.GetOrCreate(ctx, "+15550002222", &customer.Traits{Name: strptr("Ben")})
				Expect(ok).To(BeTrue())
				Expect(id).To(Equal("+15550002222"))

				profiles, err := store.ListProfiles(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(profiles).To(HaveLen(1))
				Expect(profiles[0].Name).To(HaveValue(Equal("Ben")))
			})
		})
	})
})
