package postgres

import (
	"testing"

	"impostor-service/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChange(t *testing.T) {
	payload := `{"table":"room_players","op":"DELETE","room_code":"ABC123",` +
		`"row":{"id":4,"room_id":1,"room_code":"ABC123","user_id":"h1","display_name":"Host","player_number":1}}`

	change, err := decodeChange(payload)
	require.NoError(t, err)
	assert.Equal(t, domain.TablePlayers, change.Table)
	assert.Equal(t, domain.OpDelete, change.Op)
	assert.Equal(t, "ABC123", change.RoomCode)

	filter := domain.ChangeFilter{
		Table:    domain.TablePlayers,
		Op:       domain.OpDelete,
		RoomCode: "ABC123",
		Match:    domain.PlayerIs("h1"),
	}
	assert.True(t, filter.Matches(change))
	filter.Match = domain.PlayerIs("u2")
	assert.False(t, filter.Matches(change))
}

func TestDecodeChangeRejectsGarbage(t *testing.T) {
	_, err := decodeChange("not json")
	assert.Error(t, err)

	_, err = decodeChange(`{"room_code":"ABC123"}`)
	assert.Error(t, err)
}
