package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeagueLockerSerializesPerLeague(t *testing.T) {
	locker := NewLeagueLocker()

	const workers = 8
	const iterations = 200
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				locker.Lock(42)
				counter++
				locker.Unlock(42)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*iterations, counter)
}

func TestLockManyOverlappingSets(t *testing.T) {
	locker := NewLeagueLocker()

	// Два потока берут пересекающиеся наборы в разном порядке;
	// сортировка внутри LockMany исключает взаимную блокировку.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := locker.LockMany([]int{3, 1, 2})
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := locker.LockMany([]int{2, 3, 1})
			unlock()
		}()
	}
	wg.Wait()
}

func TestLockManyEmpty(t *testing.T) {
	locker := NewLeagueLocker()
	unlock := locker.LockMany(nil)
	unlock()
}
