package entities

// TimeInterval is a blocked range within one day. Both bounds are display times ("h:mm am/pm").
type TimeInterval struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

type BlockKind string

const (
	FullDay    BlockKind = "full_day"
	PartialDay BlockKind = "partial_day"
)

// BlockException marks one calendar date of a venue as fully or partially unavailable.
// Date is always the normalized "MM/DD/YYYY" key; Intervals is non-empty iff Kind is PartialDay.
type BlockException struct {
	Date      string         `json:"date"`
	Kind      BlockKind      `json:"kind"`
	Intervals []TimeInterval `json:"intervals,omitempty"`
}

func (b BlockException) IsFullDay() bool {
	return b.Kind == FullDay
}

// Clone returns a copy that shares no interval storage with b.
func (b BlockException) Clone() BlockException {
	out := b
	if b.Intervals != nil {
		out.Intervals = append([]TimeInterval(nil), b.Intervals...)
	}
	return out
}
