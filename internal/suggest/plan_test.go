package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meety/meety/internal/domain"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		ranked     []domain.Activity
		maxResults int
		want       []categoryQuota
	}{
		{
			name:       "single coffee preference adds restaurant only",
			ranked:     []domain.Activity{domain.ActivityCoffee},
			maxResults: 5,
			want: []categoryQuota{
				{domain.ActivityCoffee, 2},
				{domain.ActivityRestaurant, 4},
			},
		},
		{
			name:       "neither restaurant nor coffee requested",
			ranked:     []domain.Activity{domain.ActivityOutdoor, domain.ActivityCulture},
			maxResults: 7,
			want: []categoryQuota{
				{domain.ActivityOutdoor, 2},
				{domain.ActivityCulture, 2},
				{domain.ActivityRestaurant, 4},
				{domain.ActivityCoffee, 2},
			},
		},
		{
			name: "only the top four preferences are searched",
			ranked: []domain.Activity{
				domain.ActivityOutdoor, domain.ActivitySports, domain.ActivityCulture,
				domain.ActivityShopping, domain.ActivityNightlife,
			},
			maxResults: 14,
			want: []categoryQuota{
				{domain.ActivityOutdoor, 2},
				{domain.ActivitySports, 2},
				{domain.ActivityCulture, 2},
				{domain.ActivityShopping, 2},
				{domain.ActivityRestaurant, 4},
				{domain.ActivityCoffee, 2},
			},
		},
		{
			name:       "restaurant ranked below the top four still counts as requested",
			ranked:     []domain.Activity{domain.ActivityOutdoor, domain.ActivitySports, domain.ActivityCulture, domain.ActivityShopping, domain.ActivityRestaurant, domain.ActivityCoffee},
			maxResults: 8,
			want: []categoryQuota{
				{domain.ActivityOutdoor, 1},
				{domain.ActivitySports, 1},
				{domain.ActivityCulture, 1},
				{domain.ActivityShopping, 1},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, plan(tc.ranked, tc.maxResults))
		})
	}
}
