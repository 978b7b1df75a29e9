package engine

import (
	"math"
	"time"
)

const (
	MaxFretScore = 150
	MaxDrumScore = 750

	// Time taken for a lane's bonus to recharge after collection
	RechargeTime = 1500 * time.Millisecond
)

// CodaSection is a Big Rock Ending. Free-form input collects the bonus that
// has recharged on a lane; the bonus is only paid out if the section ends
// without a missed note.
type CodaSection struct {
	// Notional lanes used for the bonus, not the visible lanes of the track
	Lanes             int
	MaxLaneScore      int
	LastCollectedTime []time.Duration
	// Last time a lane was struck, kept for display only
	LastHitTime []time.Duration

	TotalBonus int
	StartTime  time.Duration
	EndTime    time.Duration
	Success    bool
}

func NewCodaSection(lanes, maxLaneScore int, start, end time.Duration) *CodaSection {
	return &CodaSection{
		Lanes:             lanes,
		MaxLaneScore:      maxLaneScore,
		LastCollectedTime: make([]time.Duration, lanes),
		LastHitTime:       make([]time.Duration, lanes),
		StartTime:         start,
		EndTime:           end,
		// MissNote will change this if necessary
		Success: true,
	}
}

func (c *CodaSection) IsActive(t time.Duration) bool {
	return t >= c.StartTime && t < c.EndTime
}

// HitLane collects the recharged bonus of a lane. Lanes the section does not
// have are ignored.
func (c *CodaSection) HitLane(t time.Duration, lane int) {
	if lane < 0 || lane >= c.Lanes {
		return
	}
	c.LastHitTime[lane] = t
	if !c.Success {
		return
	}

	elapsed := t - c.LastCollectedTime[lane]
	if elapsed > RechargeTime {
		elapsed = RechargeTime
	}
	bonus := int(math.Floor(float64(elapsed) / float64(RechargeTime) * float64(c.MaxLaneScore)))
	c.TotalBonus += bonus
	c.LastCollectedTime[lane] = t
}

// MissNote forfeits the whole bonus.
func (c *CodaSection) MissNote() {
	c.Success = false
	c.TotalBonus = 0
}

func (c *CodaSection) Reset() {
	for i := range c.LastCollectedTime {
		c.LastCollectedTime[i] = 0
		c.LastHitTime[i] = 0
	}
	c.TotalBonus = 0
	c.Success = true
}
