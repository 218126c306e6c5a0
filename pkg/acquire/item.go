// Package acquire defines the contract between pkgfetch and the transfer
// engine: the items of a fetch batch, the blocking run operation, and the
// classification of per-item outcomes after a run.
package acquire

// Status is the terminal state of an Item after a run. An item the engine
// never attempted to connect for stays StatIdle, which the classifier
// treats as a transient network failure rather than an error.
type Status int

const (
	StatIdle Status = iota
	StatFetching
	StatDone
	StatError
)

func (s Status) String() string {
	switch s {
	case StatIdle:
		return "idle"
	case StatFetching:
		return "fetching"
	case StatDone:
		return "done"
	case StatError:
		return "error"
	}
	return "unknown"
}

// Item is one requested artifact. The URI may embed credentials; anything
// user-facing must go through SanitizeURI first.
type Item struct {
	URI       string
	ShortDesc string
	DestFile  string
	Size      uint64
	Hash      string
	Trusted   bool

	// Local marks items backed by a non-network source (file URIs). The
	// engine leaves those in place and points DestFile at the source.
	Local bool

	Status    Status
	Complete  bool
	ErrorText string
}

// Batch is an ordered collection of items submitted to one engine run.
// Order is preserved between submission and classification so callers can
// correlate items with preallocated destination slots by index.
type Batch struct {
	items []*Item
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Add(it *Item) {
	b.items = append(b.items, it)
}

func (b *Batch) Items() []*Item {
	return b.items
}

func (b *Batch) Len() int {
	return len(b.items)
}

// TotalNeeded returns the byte total of all items that still have to be
// fetched, for the free-space preflight.
func (b *Batch) TotalNeeded() uint64 {
	var total uint64
	for _, it := range b.items {
		if it.Status != StatDone {
			total += it.Size
		}
	}
	return total
}
