package inmemory_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
)

func newObservation(phone, content string, occurredAt time.Time) *customer.Observation {
	return &customer.Observation{
		ID:         uuid.New(),
		Phone:      phone,
		Content:    content,
		Source:     customer.SourceSMS,
		OccurredAt: occurredAt,
		CreatedAt:  occurredAt,
	}
}

var _ = Describe("Driver", func() {
	var (
		driver *inmemory.Driver
		ctx    context.Context
	)

	const phone = "+15550001111"

	BeforeEach(func() {
		driver = inmemory.NewDriver()
		ctx = context.Background()
	})

	Describe("profiles", func() {
		It("returns ErrNotFound for an unknown phone", func() {
			_, err := driver.GetProfile(ctx, phone)
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("round-trips a created profile", func() {
			name := "Ana"
			Expect(driver.CreateProfile(ctx, phone, &customer.Traits{Name: &name})).To(Succeed())

			p, err := driver.GetProfile(ctx, phone)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Phone).To(Equal(phone))
			Expect(p.Name).To(HaveValue(Equal("Ana")))
			Expect(p.Email).To(BeNil())
		})

		It("rejects duplicate phones", func() {
			Expect(driver.CreateProfile(ctx, phone, nil)).To(Succeed())
			Expect(driver.CreateProfile(ctx, phone, nil)).NotTo(Succeed())
		})

		It("updates only the supplied trait fields", func() {
			name, email := "Ana", "ana@example.com"
			Expect(driver.CreateProfile(ctx, phone, &customer.Traits{Name: &name, Email: &email})).To(Succeed())

			updated := "Ana Torres"
			Expect(driver.UpdateProfile(ctx, phone, &customer.Traits{Name: &updated})).To(Succeed())

			p, err := driver.GetProfile(ctx, phone)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Name).To(HaveValue(Equal("Ana Torres")))
			Expect(p.Email).To(HaveValue(Equal("ana@example.com")))
		})

		It("treats empty traits as a no-op update", func() {
			Expect(driver.CreateProfile(ctx, phone, nil)).To(Succeed())
			Expect(driver.UpdateProfile(ctx, phone, nil)).To(Succeed())
		})
	})

	Describe("observations", func() {
		BeforeEach(func() {
			Expect(driver.CreateProfile(ctx, phone, nil)).To(Succeed())
		})

		It("enforces that the owning profile exists", func() {
			obs := newObservation("+15559998888", "orphan", time.Now())
			err := driver.CreateObservation(ctx, obs)
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("returns recent observations newest first with a limit", func() {
			now := time.Now().UTC()
			Expect(driver.CreateObservation(ctx, newObservation(phone, "oldest", now.Add(-2*time.Hour)))).To(Succeed())
			Expect(driver.CreateObservation(ctx, newObservation(phone, "newest", now))).To(Succeed())
			Expect(driver.CreateObservation(ctx, newObservation(phone, "middle", now.Add(-time.Hour)))).To(Succeed())

			recent, err := driver.RecentObservations(ctx, phone, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(recent).To(HaveLen(2))
			Expect(recent[0].Content).To(Equal("newest"))
			Expect(recent[1].Content).To(Equal("middle"))
		})

		It("searches content case-insensitively", func() {
			now := time.Now().UTC()
			Expect(driver.CreateObservation(ctx, newObservation(phone, "Asked about Mortgage rates", now))).To(Succeed())
			Expect(driver.CreateObservation(ctx, newObservation(phone, "prefers email", now))).To(Succeed())

			matches, err := driver.SearchObservations(ctx, phone, "mortgage", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
		})

		It("counts observations per profile", func() {
			Expect(driver.CreateObservation(ctx, newObservation(phone, "one", time.Now()))).To(Succeed())

			count, err := driver.CountObservations(ctx, phone)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})
})
