package config

import (
	"testing"
	"time"
)

func TestDefaultEnablesEveryTechnique(t *testing.T) {
	c := Default()
	if !c.UseSingletons || !c.UseAC3 || !c.UseDomainCache || !c.UseValueOrderer || !c.PrioritizeBorders || !c.UseNeighborCheck {
		t.Fatalf("Default() should enable every technique toggle, got %+v", c)
	}
	if c.ThreadCount < 1 {
		t.Fatalf("ThreadCount = %d, want at least 1", c.ThreadCount)
	}
}

func TestFastDisablesExpensiveTechniques(t *testing.T) {
	c := Fast()
	if c.UseAC3 || c.UseNeighborCheck || c.UseDomainCache {
		t.Fatalf("Fast() should disable AC3/neighbor-check/domain-cache, got %+v", c)
	}
	if !c.UseSingletons {
		t.Fatal("Fast() should leave singleton detection enabled")
	}
}

func TestDeadlineZeroWhenUnlimited(t *testing.T) {
	c := Default()
	if got := c.Deadline(time.Now()); !got.IsZero() {
		t.Fatalf("Deadline() = %v, want zero value when MaxExecutionTime is unset", got)
	}
}

func TestDeadlineOffsetsFromStart(t *testing.T) {
	c := Default()
	c.MaxExecutionTime = 5 * time.Second
	start := time.Now()
	want := start.Add(5 * time.Second)
	if got := c.Deadline(start); !got.Equal(want) {
		t.Fatalf("Deadline() = %v, want %v", got, want)
	}
}
