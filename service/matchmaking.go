package service

import (
	"fmt"
	"math/rand"

	"github.com/ByGamer01/DamnBruh/models"
)

// mockMatchmaker generates synthetic opponents at request time. Real
// matchmaking is out of scope; the roster exists so clients have
// something to render while a session is active.
type mockMatchmaker struct{}

// NewMockMatchmaker creates a matchmaker producing random synthetic rosters
func NewMockMatchmaker() Matchmaker {
	return &mockMatchmaker{}
}

var opponentColors = []string{"#10B981", "#3B82F6", "#8B5CF6", "#EF4444"}

// Roster returns 5-12 synthetic opponents
func (m *mockMatchmaker) Roster() []models.Opponent {
	count := 5 + rand.Intn(8)
	opponents := make([]models.Opponent, 0, count)

	for i := 0; i < count; i++ {
		opponents = append(opponents, models.Opponent{
			PlayerID: fmt.Sprintf("bot_%d", i),
			Username: fmt.Sprintf("Player_%d", 1000+rand.Intn(9000)),
			Score:    10 + rand.Intn(91),
			Appearance: map[string]any{
				"color":     opponentColors[rand.Intn(len(opponentColors))],
				"pattern":   "solid",
				"accessory": "none",
			},
		})
	}

	return opponents
}

// TotalPlayers returns a player count between 8 and 15
func (m *mockMatchmaker) TotalPlayers() int {
	return 8 + rand.Intn(8)
}
