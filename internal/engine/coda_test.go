package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type codaHit struct {
	at   time.Duration
	lane int
}

func TestCodaHitLane(t *testing.T) {
	tests := []struct {
		name string
		hits []codaHit
		want int
	}{
		{
			name: "fully recharged",
			hits: []codaHit{{10 * time.Second, 0}},
			want: 150,
		},
		{
			name: "partial recharge",
			hits: []codaHit{{10 * time.Second, 0}, {10*time.Second + 750*time.Millisecond, 0}},
			want: 150 + 75,
		},
		{
			name: "lanes recharge separately",
			hits: []codaHit{{10 * time.Second, 0}, {10*time.Second + 100*time.Millisecond, 1}},
			want: 300,
		},
		{
			name: "out of range lanes are ignored",
			hits: []codaHit{{10 * time.Second, -1}, {10 * time.Second, 2}},
			want: 0,
		},
		{
			name: "floored",
			hits: []codaHit{{10 * time.Second, 0}, {10*time.Second + 15*time.Millisecond, 0}},
			want: 150 + 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coda := NewCodaSection(2, MaxFretScore, 9*time.Second, 20*time.Second)
			for _, h := range tt.hits {
				coda.HitLane(h.at, h.lane)
			}
			assert.Equal(t, tt.want, coda.TotalBonus)
			assert.True(t, coda.Success)
		})
	}
}

func TestCodaMissForfeits(t *testing.T) {
	coda := NewCodaSection(2, MaxFretScore, 9*time.Second, 20*time.Second)
	coda.HitLane(10*time.Second, 0)
	coda.HitLane(10*time.Second, 1)
	assert.Positive(t, coda.TotalBonus)

	coda.MissNote()
	assert.False(t, coda.Success)
	assert.Zero(t, coda.TotalBonus)

	coda.HitLane(12*time.Second, 0)
	assert.Zero(t, coda.TotalBonus)
	assert.Equal(t, 12*time.Second, coda.LastHitTime[0])

	coda.Reset()
	assert.True(t, coda.Success)
	assert.Equal(t, []time.Duration{0, 0}, coda.LastCollectedTime)
}

func TestCodaIsActive(t *testing.T) {
	coda := NewCodaSection(1, MaxDrumScore, time.Second, 2*time.Second)
	assert.False(t, coda.IsActive(999*time.Millisecond))
	assert.True(t, coda.IsActive(time.Second))
	assert.False(t, coda.IsActive(2*time.Second))
}
