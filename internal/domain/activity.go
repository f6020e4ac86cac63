package domain

import "fmt"

// Activity identifies the kind of place a participant wants to meet at.
type Activity string

const (
	ActivityRestaurant    Activity = "restaurant"
	ActivityOutdoor       Activity = "outdoor"
	ActivitySports        Activity = "sports"
	ActivityEntertainment Activity = "entertainment"
	ActivityShopping      Activity = "shopping"
	ActivityCoffee        Activity = "coffee"
	ActivityCulture       Activity = "culture"
	ActivityNightlife     Activity = "nightlife"
)

// ActivityType is the presentation metadata for an Activity.
type ActivityType struct {
	ID    Activity `json:"id"`
	Name  string   `json:"name"`
	Icon  string   `json:"icon"`
	Color string   `json:"color"`
}

// ActivityTypes is the catalog of selectable activities, in display order.
var ActivityTypes = []ActivityType{
	{ID: ActivityRestaurant, Name: "Restaurant", Icon: "🍽️", Color: "#f59e0b"},
	{ID: ActivityOutdoor, Name: "Outdoor Activity", Icon: "🏞️", Color: "#22c55e"},
	{ID: ActivitySports, Name: "Sports", Icon: "⚽", Color: "#ef4444"},
	{ID: ActivityEntertainment, Name: "Entertainment", Icon: "🎬", Color: "#8b5cf6"},
	{ID: ActivityShopping, Name: "Shopping", Icon: "🛍️", Color: "#ec4899"},
	{ID: ActivityCoffee, Name: "Coffee & Drinks", Icon: "☕", Color: "#a3531a"},
	{ID: ActivityCulture, Name: "Arts & Culture", Icon: "🎨", Color: "#0d9488"},
	{ID: ActivityNightlife, Name: "Nightlife", Icon: "🌃", Color: "#7c3aed"},
}

// ParseActivity returns the Activity named by s.
// Returns ErrValidation when s is not in the catalog.
func ParseActivity(s string) (Activity, error) {
	for _, t := range ActivityTypes {
		if string(t.ID) == s {
			return t.ID, nil
		}
	}
	return "", fmt.Errorf("%w: unknown activity %q", ErrValidation, s)
}
