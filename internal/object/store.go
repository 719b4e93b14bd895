package object

// Store is a map's registry of every object it owns, keyed by GUID.
type Store struct {
	objects map[GUID]Object
}

func NewStore() *Store {
	return &Store{objects: make(map[GUID]Object, 256)}
}

func (s *Store) Insert(o Object) {
	s.objects[o.Base().GUID()] = o
}

func (s *Store) Get(g GUID) (Object, bool) {
	o, ok := s.objects[g]
	return o, ok
}

func (s *Store) Remove(g GUID) {
	delete(s.objects, g)
}

func (s *Store) Has(g GUID) bool {
	_, ok := s.objects[g]
	return ok
}

func (s *Store) Len() int {
	return len(s.objects)
}

// Each visits every object in no particular order. fn must not insert.
func (s *Store) Each(fn func(Object)) {
	for _, o := range s.objects {
		fn(o)
	}
}

// Find returns the object with GUID g if it has concrete type T.
func Find[T Object](s *Store, g GUID) (T, bool) {
	o, ok := s.objects[g]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := o.(T)
	return t, ok
}
