package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/random-image/internal/circuitbreaker"
	"github.com/angeloszaimis/random-image/internal/ttlcache"
)

var _ = Describe("CircuitBreaker", func() {
	var (
		cb    *circuitbreaker.CircuitBreaker
		clock *ttlcache.ManualClock
	)

	BeforeEach(func() {
		clock = ttlcache.NewManualClock(time.Unix(1_700_000_000, 0))
		cb = circuitbreaker.NewCircuitBreaker(3, 30*time.Second, clock)
	})

	It("should start closed", func() {
		Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		Expect(cb.Allow()).To(BeTrue())
	})

	Context("when in CLOSED state", func() {
		It("should remain closed below the threshold", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should open at the threshold", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should reset the failure count on success", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordSuccess()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Context("when in OPEN state", func() {
		BeforeEach(func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordFailure()
		})

		It("should skip calls before the timeout", func() {
			clock.Advance(29 * time.Second)
			Expect(cb.Allow()).To(BeFalse())
		})

		It("should let one probe through after the timeout", func() {
			clock.Advance(30 * time.Second)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			Expect(cb.Allow()).To(BeFalse())
		})

		It("should close when the probe succeeds", func() {
			clock.Advance(30 * time.Second)
			Expect(cb.Allow()).To(BeTrue())
			cb.RecordSuccess()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should reopen when the probe fails", func() {
			clock.Advance(30 * time.Second)
			Expect(cb.Allow()).To(BeTrue())
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(cb.Allow()).To(BeFalse())
		})

		It("should free the half-open slot on release without reopening", func() {
			clock.Advance(30 * time.Second)
			Expect(cb.Allow()).To(BeTrue())
			cb.Release()
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			Expect(cb.Allow()).To(BeTrue())
		})
	})

	Context("when a call is released", func() {
		It("should not count towards the threshold", func() {
			for i := 0; i < 5; i++ {
				Expect(cb.Allow()).To(BeTrue())
				cb.Release()
			}
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Context("with a disabled threshold", func() {
		It("should never open", func() {
			cb = circuitbreaker.NewCircuitBreaker(0, time.Second, clock)
			for i := 0; i < 10; i++ {
				cb.RecordFailure()
			}
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Allow()).To(BeTrue())
		})
	})

	Describe("State.String", func() {
		It("should name every state", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF-OPEN"))
			Expect(circuitbreaker.State(42).String()).To(Equal("UNKNOWN"))
		})
	})
})
