package order

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
)

func (s Status) String() string {
	return string(s)
}

// statusSynonyms maps legacy spellings still present in old documents
// onto the canonical set.
var statusSynonyms = map[Status]Status{
	"cancelled": StatusCanceled,
	"delivered": StatusCompleted,
}

// Canonical normalizes a status to its canonical spelling. Unknown
// values pass through unchanged; use ParseStatus to reject them.
func (s Status) Canonical() Status {
	if canonical, ok := statusSynonyms[s]; ok {
		return canonical
	}
	return s
}

// ParseStatus canonicalizes raw and rejects values outside the
// canonical set.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw).Canonical()
	if _, ok := allowedTransitions[s]; !ok {
		return "", ErrUnknownStatus
	}
	return s, nil
}

// allowedTransitions is the single authoritative transition table.
// The key is the current status, the value the set of statuses it may
// move to. Never re-embed this table anywhere else.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCanceled, StatusPaid, StatusProcessing},
	StatusConfirmed:  {StatusShipping, StatusCanceled},
	StatusPaid:       {StatusConfirmed, StatusShipping},
	StatusProcessing: {StatusConfirmed, StatusShipping, StatusCanceled},
	StatusShipping:   {StatusCompleted},
	StatusCompleted:  {},
	StatusCanceled:   {},
}

// AllowedNext returns the statuses legally reachable from current.
// The result is a copy; callers may not mutate the table through it.
func AllowedNext(current Status) []Status {
	next := allowedTransitions[current.Canonical()]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// Terminal reports whether s has no outgoing transitions.
func Terminal(s Status) bool {
	return len(allowedTransitions[s.Canonical()]) == 0
}

// IsLegalTransition canonicalizes both statuses and checks the
// transition table. No-op transitions are rejected, not accepted.
func IsLegalTransition(current, requested Status) bool {
	from := current.Canonical()
	to := requested.Canonical()
	if from == to {
		return false
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Label returns the customer-facing text for a canonical status. The
// switch is exhaustive over the canonical set.
func (s Status) Label() string {
	switch s.Canonical() {
	case StatusPending:
		return "Awaiting confirmation"
	case StatusConfirmed:
		return "Confirmed"
	case StatusPaid:
		return "Payment received"
	case StatusProcessing:
		return "Being prepared"
	case StatusShipping:
		return "Out for delivery"
	case StatusCompleted:
		return "Delivered"
	case StatusCanceled:
		return "Canceled"
	default:
		return string(s)
	}
}
