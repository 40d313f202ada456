package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoints(t *testing.T) {
	tests := []struct {
		name      string
		timeLimit int
		elapsed   time.Duration
		want      int
	}{
		{name: "instant", timeLimit: 30, elapsed: 0, want: 1000},
		{name: "full time", timeLimit: 30, elapsed: 30 * time.Second, want: 500},
		{name: "five seconds of thirty", timeLimit: 30, elapsed: 5 * time.Second, want: 917},
		{name: "half time", timeLimit: 20, elapsed: 10 * time.Second, want: 750},
		{name: "negative elapsed clamps", timeLimit: 30, elapsed: -time.Second, want: 1000},
		{name: "overtime clamps", timeLimit: 30, elapsed: time.Minute, want: 500},
		{name: "no limit", timeLimit: 0, elapsed: time.Second, want: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Points(tt.timeLimit, tt.elapsed))
		})
	}
}

func TestPointsStayInRange(t *testing.T) {
	for limit := 1; limit <= 120; limit += 7 {
		for ms := 0; ms <= limit*1000; ms += 333 {
			got := Points(limit, time.Duration(ms)*time.Millisecond)
			assert.GreaterOrEqual(t, got, 500)
			assert.LessOrEqual(t, got, 1000)
		}
	}
}
