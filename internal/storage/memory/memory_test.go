package memory

import (
	"testing"

	"budgeteer/internal/storage"
	"budgeteer/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(*testing.T) storage.Store { return New() })
}
