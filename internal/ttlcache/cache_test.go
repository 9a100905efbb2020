package ttlcache_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/random-image/internal/ttlcache"
)

var _ = Describe("Cache", func() {
	var (
		clock *ttlcache.ManualClock
		cache *ttlcache.Cache[string, int]
	)

	BeforeEach(func() {
		clock = ttlcache.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		cache = ttlcache.New[string, int](time.Minute, clock)
	})

	It("should miss on an empty cache", func() {
		_, ok := cache.Get("h")
		Expect(ok).To(BeFalse())
		_, ok = cache.Stale("h")
		Expect(ok).To(BeFalse())
	})

	It("should return values within the ttl", func() {
		cache.Set("h", 42)
		clock.Advance(59 * time.Second)

		v, ok := cache.Get("h")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(42))
	})

	It("should expire values at the ttl", func() {
		cache.Set("h", 42)
		clock.Advance(time.Minute)

		_, ok := cache.Get("h")
		Expect(ok).To(BeFalse())
	})

	It("should keep expired values available as stale", func() {
		cache.Set("h", 42)
		clock.Advance(time.Hour)

		v, ok := cache.Stale("h")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(42))
	})

	It("should restart the ttl on set", func() {
		cache.Set("h", 1)
		clock.Advance(50 * time.Second)
		cache.Set("h", 2)
		clock.Advance(50 * time.Second)

		v, ok := cache.Get("h")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(2))
	})

	It("should default to the wall clock", func() {
		c := ttlcache.New[string, int](time.Hour, nil)
		c.Set("k", 1)
		_, ok := c.Get("k")
		Expect(ok).To(BeTrue())
	})

	It("should handle concurrent access", func() {
		var wg sync.WaitGroup
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					cache.Set("k", n)
					cache.Get("k")
				}
			}(g)
		}
		wg.Wait()

		v, ok := cache.Get("k")
		Expect(ok).To(BeTrue())
		Expect(v).To(BeNumerically(">=", 0))
		Expect(v).To(BeNumerically("<", 10))
	})
})
