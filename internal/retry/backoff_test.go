package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay(t *testing.T) {
	tests := []struct {
		name       string
		retryCount int
		want       time.Duration
	}{
		{name: "first retry", retryCount: 0, want: time.Second},
		{name: "second retry", retryCount: 1, want: 2 * time.Second},
		{name: "third retry", retryCount: 2, want: 4 * time.Second},
		{name: "fourth retry", retryCount: 3, want: 8 * time.Second},
		{name: "eighth retry hits the cap", retryCount: 8, want: 256 * time.Second},
		{name: "ninth retry is capped", retryCount: 9, want: 5 * time.Minute},
		{name: "large count is capped", retryCount: 20, want: 5 * time.Minute},
		{name: "count past shift guard is capped", retryCount: 64, want: 5 * time.Minute},
		{name: "negative count treated as zero", retryCount: -1, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Delay(tt.retryCount))
		})
	}
}

func TestDelay_NonDecreasing(t *testing.T) {
	prev := Delay(0)
	for i := 1; i <= 40; i++ {
		d := Delay(i)
		assert.GreaterOrEqual(t, d, prev, "delay decreased at retry %d", i)
		prev = d
	}
}

func TestDelayWithJitter_Bounds(t *testing.T) {
	for _, retryCount := range []int{0, 1, 5, 10} {
		base := Delay(retryCount)
		upper := base + time.Duration(0.10*float64(base))

		for i := 0; i < 200; i++ {
			d := DelayWithJitter(retryCount)
			assert.GreaterOrEqual(t, d, base, "jitter must never shorten the delay")
			assert.LessOrEqual(t, d, upper, "jitter must stay within 10%%")
		}
	}
}
