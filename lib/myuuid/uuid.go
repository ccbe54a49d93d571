package myuuid

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type UUIDer interface {
	Create() string
}

type RealUUIDer struct{}

func (u RealUUIDer) Create() string {
	return uuid.New().String()
}

// SequenceUUIDer hands out predictable uids ("<prefix>1", "<prefix>2", ...), for tests.
type SequenceUUIDer struct {
	sync.Mutex
	Prefix string
	next   int
}

func (u *SequenceUUIDer) Create() string {
	u.Lock()
	defer u.Unlock()

	u.next++
	return fmt.Sprintf("%s%d", u.Prefix, u.next)
}

// IsValid tells whether s is a well formed uuid.
func IsValid(s string) bool {
	return uuid.Validate(s) == nil
}
