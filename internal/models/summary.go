package models

import "time"

// ItineraryDescriptor is the lightweight listing entry used by the admin view
type ItineraryDescriptor struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	UpdatedAt string `json:"updatedAt" yaml:"updatedAt"`
}

// UserSummary aggregates one user's itineraries. It is derived on every
// request and never stored.
type UserSummary struct {
	Username       string                `json:"username"`
	ItineraryCount int                   `json:"itineraryCount"`
	LastUpdated    string                `json:"lastUpdated"` // Max updatedAt over the user's itineraries
	Itineraries    []ItineraryDescriptor `json:"itineraries"`
}

// DisplayDateLayout is how dates are rendered for people
const DisplayDateLayout = "2006-01-02"

// ItineraryDescriptorView adds a display date to a descriptor
type ItineraryDescriptorView struct {
	ItineraryDescriptor `yaml:",inline"`
	UpdatedAtDisplay    string `json:"updatedAtDisplay" yaml:"updatedAtDisplay"`
}

// UserSummaryView is the read model rendered by the admin UI
type UserSummaryView struct {
	Username           string                    `json:"username" yaml:"username"`
	ItineraryCount     int                       `json:"itineraryCount" yaml:"itineraryCount"`
	LastUpdated        string                    `json:"lastUpdated" yaml:"lastUpdated"`
	LastUpdatedDisplay string                    `json:"lastUpdatedDisplay" yaml:"lastUpdatedDisplay"`
	Itineraries        []ItineraryDescriptorView `json:"itineraries" yaml:"itineraries"`
}

// NewUserSummaryView projects a summary for display in loc. A nil loc means UTC.
func NewUserSummaryView(s UserSummary, loc *time.Location) UserSummaryView {
	view := UserSummaryView{
		Username:           s.Username,
		ItineraryCount:     s.ItineraryCount,
		LastUpdated:        s.LastUpdated,
		LastUpdatedDisplay: DisplayDate(s.LastUpdated, loc),
		Itineraries:        make([]ItineraryDescriptorView, 0, len(s.Itineraries)),
	}
	for _, it := range s.Itineraries {
		view.Itineraries = append(view.Itineraries, ItineraryDescriptorView{
			ItineraryDescriptor: it,
			UpdatedAtDisplay:    DisplayDate(it.UpdatedAt, loc),
		})
	}
	return view
}

// NewUserSummaryViews projects every summary, keeping order
func NewUserSummaryViews(summaries []UserSummary, loc *time.Location) []UserSummaryView {
	views := make([]UserSummaryView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, NewUserSummaryView(s, loc))
	}
	return views
}

// DisplayDate formats an RFC 3339 timestamp as a calendar date in loc.
// Unparseable input is returned unchanged.
func DisplayDate(timestamp string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return timestamp
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayDateLayout)
}
