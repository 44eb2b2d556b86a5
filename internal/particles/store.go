package particles

import "fmt"

// None terminates a slot chain.
const None int32 = -1

// slot is one arena entry. prev/next thread the free list while owner is
// groupFree and the owner's group list otherwise. Only Store touches them.
type slot struct {
	Particle
	prev, next int32
	owner      Group
}

// Visit tells Store.sweep what to do with the slot just visited.
type Visit int

const (
	Keep   Visit = iota // leave the slot in its group
	Expire              // unlink the slot and return it to the free list
	Halt                // stop the whole sweep, leaving the slot in place
)

// Store is the fixed particle arena together with the free list and the
// group index. Every slot is always on exactly one list.
//
// Memory layout: slots are a single preallocated slice indexed by int32
// handles, so there are no per-particle allocations after NewStore.
type Store struct {
	slots     []slot
	firstFree int32
	firstPart [NumGroups]int32

	freeLen  int
	groupLen [NumGroups]int
}

// NewStore creates an arena with capacity slots, all free.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	s := &Store{slots: make([]slot, capacity)}
	s.reset()
	return s
}

// reset rebuilds the free list as the chain 0 -> 1 -> ... -> cap-1 and empties
// every group. Calling it twice is the same as calling it once.
func (s *Store) reset() {
	n := int32(len(s.slots))
	for i := int32(0); i < n; i++ {
		s.slots[i].prev = i - 1
		s.slots[i].next = i + 1
		s.slots[i].owner = groupFree
	}
	s.slots[n-1].next = None
	s.firstFree = 0
	s.freeLen = int(n)

	for g := range s.firstPart {
		s.firstPart[g] = None
		s.groupLen[g] = 0
	}
}

// acquire pops the free list head. It reports false when the arena is full.
func (s *Store) acquire() (int32, bool) {
	id := s.firstFree
	if id == None {
		return None, false
	}
	s.firstFree = s.slots[id].next
	if s.firstFree != None {
		s.slots[s.firstFree].prev = None
	}
	s.freeLen--
	return id, true
}

// release pushes slot i onto the free list head. i must not be on a group list.
func (s *Store) release(i int32) {
	if s.firstFree != None {
		s.slots[s.firstFree].prev = i
	}
	sl := &s.slots[i]
	sl.prev = None
	sl.next = s.firstFree
	sl.owner = groupFree
	s.firstFree = i
	s.freeLen++
}

// insert pushes slot i at the head of group g.
func (s *Store) insert(g Group, i int32) {
	head := s.firstPart[g]
	sl := &s.slots[i]
	sl.prev = None
	sl.next = head
	sl.owner = g
	if head != None {
		s.slots[head].prev = i
	}
	s.firstPart[g] = i
	s.groupLen[g]++
}

// remove splices slot i out of group g. The slot's own links are left
// untouched so a traversal that already captured next stays valid.
func (s *Store) remove(g Group, i int32) {
	sl := &s.slots[i]
	if sl.prev != None {
		s.slots[sl.prev].next = sl.next
	} else {
		s.firstPart[g] = sl.next
	}
	if sl.next != None {
		s.slots[sl.next].prev = sl.prev
	}
	s.groupLen[g]--
}

// add copies p into a fresh slot of group g with Life reset. It reports
// false, and changes nothing, when the arena is exhausted.
func (s *Store) add(g Group, p *Particle) (int32, bool) {
	id, ok := s.acquire()
	if !ok {
		return None, false
	}
	s.slots[id].Particle = *p
	s.slots[id].Life = 0
	s.insert(g, id)
	return id, true
}

// sweep visits group g head to tail and is the only traversal allowed to
// remove. The successor is captured before fn runs, so expiring the current
// slot is safe; removing any other slot from fn is not. It returns false
// when fn halted the sweep.
func (s *Store) sweep(g Group, fn func(i int32, p *Particle) Visit) bool {
	i := s.firstPart[g]
	for i != None {
		next := s.slots[i].next
		switch fn(i, &s.slots[i].Particle) {
		case Expire:
			s.remove(g, i)
			s.release(i)
		case Halt:
			return false
		}
		i = next
	}
	return true
}

// each visits group g head to tail without mutating links.
func (s *Store) each(g Group, fn func(i int32, p *Particle)) {
	for i := s.firstPart[g]; i != None; i = s.slots[i].next {
		fn(i, &s.slots[i].Particle)
	}
}

// ForEach calls fn with a copy of every live particle in group g, newest first.
func (s *Store) ForEach(g Group, fn func(i int32, p Particle)) {
	s.each(g, func(i int32, p *Particle) { fn(i, *p) })
}

// Capacity returns the fixed number of slots.
func (s *Store) Capacity() int {
	return len(s.slots)
}

// Len returns the number of live particles in group g.
func (s *Store) Len(g Group) int {
	return s.groupLen[g]
}

// FreeLen returns the number of free slots.
func (s *Store) FreeLen() int {
	return s.freeLen
}

// Live returns the number of live particles across all groups.
func (s *Store) Live() int {
	return len(s.slots) - s.freeLen
}

// Particle returns a copy of slot i and whether it is live.
func (s *Store) Particle(i int32) (Particle, bool) {
	if i < 0 || int(i) >= len(s.slots) {
		return Particle{}, false
	}
	sl := &s.slots[i]
	return sl.Particle, sl.owner != groupFree
}

// GroupOf returns the group owning slot i, or false for a free slot.
func (s *Store) GroupOf(i int32) (Group, bool) {
	if i < 0 || int(i) >= len(s.slots) || s.slots[i].owner == groupFree {
		return 0, false
	}
	return s.slots[i].owner, true
}

// Indices returns the slot indices of group g in list order.
func (s *Store) Indices(g Group) []int32 {
	out := make([]int32, 0, s.groupLen[g])
	for i := s.firstPart[g]; i != None; i = s.slots[i].next {
		out = append(out, i)
	}
	return out
}

// FreeIndices returns the free list in order, head first.
func (s *Store) FreeIndices() []int32 {
	out := make([]int32, 0, s.freeLen)
	for i := s.firstFree; i != None; i = s.slots[i].next {
		out = append(out, i)
	}
	return out
}

// Check walks every list and verifies that each slot is on exactly one of
// them, that back links mirror forward links, that owner tags agree with
// list membership and that the cached lengths are right.
func (s *Store) Check() error {
	n := len(s.slots)
	seen := make([]bool, n)

	walk := func(name string, head int32, owner Group) (int, error) {
		count := 0
		prev := None
		for i := head; i != None; i = s.slots[i].next {
			if i < 0 || int(i) >= n {
				return count, fmt.Errorf("%s list: index %d out of range", name, i)
			}
			if seen[i] {
				return count, fmt.Errorf("%s list: slot %d already on a list", name, i)
			}
			seen[i] = true
			if s.slots[i].prev != prev {
				return count, fmt.Errorf("%s list: slot %d prev=%d, want %d", name, i, s.slots[i].prev, prev)
			}
			if s.slots[i].owner != owner {
				return count, fmt.Errorf("%s list: slot %d owner=%s", name, i, s.slots[i].owner)
			}
			prev = i
			count++
		}
		return count, nil
	}

	total := 0
	free, err := walk("free", s.firstFree, groupFree)
	if err != nil {
		return err
	}
	if free != s.freeLen {
		return fmt.Errorf("free list: walked %d slots, cached length %d", free, s.freeLen)
	}
	total += free

	for g := Group(0); g < NumGroups; g++ {
		count, err := walk(g.String(), s.firstPart[g], g)
		if err != nil {
			return err
		}
		if count != s.groupLen[g] {
			return fmt.Errorf("%s list: walked %d slots, cached length %d", g, count, s.groupLen[g])
		}
		total += count
	}

	if total != n {
		return fmt.Errorf("lists cover %d slots, capacity %d", total, n)
	}
	return nil
}
