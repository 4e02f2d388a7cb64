package services

// TurnManager is the ordered queue of participant ids plus the index of the
// current turn holder. Whenever the queue is non-empty the index denotes a
// live entry.
type TurnManager struct {
	order []int
	index int
}

func NewTurnManager() *TurnManager {
	return &TurnManager{}
}

// Append adds id to the end of the queue
func (tm *TurnManager) Append(id int) {
	tm.order = append(tm.order, id)
}

// Remove deletes id from the queue. When the removed entry sat at or before
// the current index the index moves back one, so the next Advance lands on
// the participant that would have followed.
func (tm *TurnManager) Remove(id int) bool {
	pos := -1
	for i, other := range tm.order {
		if other == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return false
	}
	tm.order = append(tm.order[:pos], tm.order[pos+1:]...)
	if len(tm.order) == 0 {
		tm.index = 0
		return true
	}
	if pos <= tm.index {
		tm.index--
	}
	tm.index = mod(tm.index, len(tm.order))
	return true
}

// Advance moves to the next holder. No-op on an empty queue.
func (tm *TurnManager) Advance() {
	if len(tm.order) == 0 {
		return
	}
	tm.index = (tm.index + 1) % len(tm.order)
}

// Current returns the turn holder, if any
func (tm *TurnManager) Current() (int, bool) {
	if len(tm.order) == 0 {
		return 0, false
	}
	return tm.order[tm.index], true
}

// Reset replaces the queue with ids, first entry holding the turn
func (tm *TurnManager) Reset(ids []int) {
	tm.order = append([]int(nil), ids...)
	tm.index = 0
}

func (tm *TurnManager) Clear() {
	tm.Reset(nil)
}

func (tm *TurnManager) Len() int {
	return len(tm.order)
}

// Order returns a copy of the queue
func (tm *TurnManager) Order() []int {
	return append([]int(nil), tm.order...)
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
