package rotation

// Category names one of the three independent rotations.
type Category string

const (
	CategorySound        Category = "sound"
	CategoryInterjection Category = "interjection"
	CategoryAfterEffect  Category = "after_effect"
)

// Categories lists every category in render order.
var Categories = []Category{CategorySound, CategoryInterjection, CategoryAfterEffect}

// State is the persisted rotation for one category.
//
// Permutation is a shuffle of [0, poolSize) and Index points at the next
// entry to serve.
type State struct {
	Permutation []int `json:"permutation"`
	Index       int   `json:"index"`
}

// Stale reports whether the state must be regenerated before serving a pool
// of the given size.
func (s State) Stale(poolSize int) bool {
	return len(s.Permutation) != poolSize
}

// Clone returns a deep copy so callers never share a permutation slice.
func (s State) Clone() State {
	out := State{Index: s.Index}
	if s.Permutation != nil {
		out.Permutation = append([]int(nil), s.Permutation...)
	}
	return out
}

// Rewind moves the cursor back one position, stopping at 0.
func Rewind(s State) State {
	out := s.Clone()
	if out.Index > 0 {
		out.Index--
	} else {
		out.Index = 0
	}
	return out
}

// Set groups the three rotations owned by one user.
type Set struct {
	Sound        State `json:"sound"`
	Interjection State `json:"interjection"`
	AfterEffect  State `json:"after_effect"`
}

// Of returns the state for a category.
func (s Set) Of(c Category) State {
	switch c {
	case CategorySound:
		return s.Sound
	case CategoryInterjection:
		return s.Interjection
	case CategoryAfterEffect:
		return s.AfterEffect
	}
	return State{}
}

// With returns a copy of the set with one category replaced.
func (s Set) With(c Category, st State) Set {
	switch c {
	case CategorySound:
		s.Sound = st
	case CategoryInterjection:
		s.Interjection = st
	case CategoryAfterEffect:
		s.AfterEffect = st
	}
	return s
}

// Clone deep-copies every category.
func (s Set) Clone() Set {
	return Set{
		Sound:        s.Sound.Clone(),
		Interjection: s.Interjection.Clone(),
		AfterEffect:  s.AfterEffect.Clone(),
	}
}

// PoolSizes carries the size of each content pool for the active platform.
type PoolSizes struct {
	Sound        int `json:"sound"`
	Interjection int `json:"interjection"`
	AfterEffect  int `json:"after_effect"`
}

// Of returns the pool size for a category.
func (p PoolSizes) Of(c Category) int {
	switch c {
	case CategorySound:
		return p.Sound
	case CategoryInterjection:
		return p.Interjection
	case CategoryAfterEffect:
		return p.AfterEffect
	}
	return 0
}

// Pick is one category's selection for a turn.
// OK is false when the pool was empty and nothing should be rendered.
type Pick struct {
	ID int  `json:"id"`
	OK bool `json:"ok"`
}

// Selection is the triple served on one turn.
type Selection struct {
	Sound        Pick `json:"sound"`
	Interjection Pick `json:"interjection"`
	AfterEffect  Pick `json:"after_effect"`
}

// Of returns the pick for a category.
func (s Selection) Of(c Category) Pick {
	switch c {
	case CategorySound:
		return s.Sound
	case CategoryInterjection:
		return s.Interjection
	case CategoryAfterEffect:
		return s.AfterEffect
	}
	return Pick{}
}

func (s *Selection) set(c Category, p Pick) {
	switch c {
	case CategorySound:
		s.Sound = p
	case CategoryInterjection:
		s.Interjection = p
	case CategoryAfterEffect:
		s.AfterEffect = p
	}
}

// Engine advances rotations. It holds no per-user state; the only thing it
// owns is the source of fresh permutations.
type Engine struct {
	shuffler Shuffler
}

// New creates an engine. A nil shuffler falls back to RandomShuffler.
func New(shuffler Shuffler) *Engine {
	if shuffler == nil {
		shuffler = RandomShuffler{}
	}
	return &Engine{shuffler: shuffler}
}

// Advance selects the next item in every category and returns the updated
// set. The input set is not modified.
func (e *Engine) Advance(set Set, sizes PoolSizes) (Selection, Set) {
	var sel Selection
	next := set.Clone()
	for _, c := range Categories {
		pick, st := e.Step(set.Of(c), sizes.Of(c))
		sel.set(c, pick)
		next = next.With(c, st)
	}
	return sel, next
}

// Step serves one item from a single rotation.
func (e *Engine) Step(state State, poolSize int) (Pick, State) {
	if poolSize <= 0 {
		return Pick{}, state.Clone()
	}

	next := state.Clone()
	if next.Stale(poolSize) {
		next.Permutation = e.shuffler.Permutation(poolSize)
		next.Index = 0
	}
	if next.Index < 0 || next.Index >= poolSize {
		next.Index = 0
	}

	id := next.Permutation[next.Index]
	next.Index++
	if next.Index >= poolSize {
		next.Index = 0
	}
	return Pick{ID: id, OK: true}, next
}
