package replyscore_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"reply-bot/replyscore"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"infra and validation", "Retries at that volume are usually the bottleneck", 4},
		{"infra validation and question", "Retries at that volume are usually the bottleneck. What queue are you on?", 5},
		{"bare question", "What do you think?", 0},
		{"salesy", "check us out", -4},
		{"fluff", "so true", -3},
		{"hype", "A revolutionary approach", -2},
		{"case insensitive", "WEBHOOK retries MAKES SENSE", 4},
		{"everything bad", "Totally game-changing, DM me", -9},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, replyscore.Score(tt.text))
		})
	}
}

func TestScore_SignalAndPenaltyCombine(t *testing.T) {
	// +2 infra, -4 salesy
	assert.Equal(t, -2, replyscore.Score("our platform handles webhook uptime for you"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello", replyscore.Normalize("  hello \n"))

	long := strings.Repeat("é", 300)
	out := replyscore.Normalize(long)
	assert.Equal(t, replyscore.MaxReplyLength, len([]rune(out)))

	// cutting at the limit must not leave trailing whitespace
	padded := strings.Repeat("a", 239) + " tail"
	assert.Equal(t, strings.Repeat("a", 239), replyscore.Normalize(padded))
}

func TestGate_Accept(t *testing.T) {
	g := replyscore.Gate{MinScore: replyscore.DefaultMinScore}

	reply, score, ok := g.Accept("  Webhook retries are usually the bottleneck at that volume  ")
	assert.True(t, ok)
	assert.Equal(t, 4, score)
	assert.Equal(t, "Webhook retries are usually the bottleneck at that volume", reply)

	_, score, ok = g.Accept("check us out")
	assert.False(t, ok)
	assert.LessOrEqual(t, score, -4)

	_, _, ok = g.Accept("   ")
	assert.False(t, ok)
}
