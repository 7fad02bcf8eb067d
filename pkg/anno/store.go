package anno

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrDataItemNotFound is returned when a store holds no data item for
	// the requested uid.
	ErrDataItemNotFound = errors.New("data item not found")
	// ErrOpDescNotFound is returned when a store holds no operation
	// description for the requested uid.
	ErrOpDescNotFound = errors.New("operation description not found")
)

// Store gives shared access to data items and operation descriptions by
// uid. Documents and provenance tracers resolve their references through a
// store instead of holding copies. Implementations must be safe for
// concurrent use.
type Store interface {
	StoreDataItem(item DataItem)
	DataItem(uid string) (DataItem, error)
	StoreOpDesc(desc OperationDescription)
	OpDesc(uid string) (OperationDescription, error)
}

// DictStore is the in-memory Store.
type DictStore struct {
	lock    sync.RWMutex
	items   map[string]DataItem
	opDescs map[string]OperationDescription
}

// NewDictStore creates an empty in-memory store.
func NewDictStore() *DictStore {
	return &DictStore{
		items:   make(map[string]DataItem),
		opDescs: make(map[string]OperationDescription),
	}
}

func (s *DictStore) StoreDataItem(item DataItem) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.items[item.UID()] = item
}

func (s *DictStore) DataItem(uid string) (DataItem, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	item, ok := s.items[uid]
	if !ok {
		return nil, errors.Wrapf(ErrDataItemNotFound, "uid %s", uid)
	}

	return item, nil
}

func (s *DictStore) StoreOpDesc(desc OperationDescription) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.opDescs[desc.UID] = desc
}

func (s *DictStore) OpDesc(uid string) (OperationDescription, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	desc, ok := s.opDescs[uid]
	if !ok {
		return OperationDescription{}, errors.Wrapf(ErrOpDescNotFound, "uid %s", uid)
	}

	return desc, nil
}

var _ Store = (*DictStore)(nil)
