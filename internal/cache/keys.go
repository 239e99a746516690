package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func DeckListKey(userID uuid.UUID) string {
	return fmt.Sprintf("decks:user:%s", userID)
}
