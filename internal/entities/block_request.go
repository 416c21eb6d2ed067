package entities

// BlockRequest is the body of a direct blocked-date upsert and of an edit-session draft.
type BlockRequest struct {
	FullDay   bool           `json:"full_day"`
	Intervals []TimeInterval `json:"intervals" validate:"omitempty,dive"`
}

// ToException builds the exception for date; a full-day request drops any intervals.
func (r BlockRequest) ToException(date string) BlockException {
	if r.FullDay {
		return BlockException{Date: date, Kind: FullDay}
	}
	return BlockException{
		Date:      date,
		Kind:      PartialDay,
		Intervals: append([]TimeInterval(nil), r.Intervals...),
	}
}
