package generic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name     string
		items    []int
		n        int
		expected [][]int
	}{
		{
			name:     "even_split",
			items:    []int{1, 2, 3, 4},
			n:        2,
			expected: [][]int{{1, 2}, {3, 4}},
		},
		{
			name:     "remainder_goes_to_earlier_groups",
			items:    []int{1, 2, 3, 4, 5},
			n:        3,
			expected: [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:     "more_groups_than_items",
			items:    []int{1, 2},
			n:        4,
			expected: [][]int{{1}, {2}, {}, {}},
		},
		{
			name:     "empty_input",
			items:    nil,
			n:        3,
			expected: [][]int{{}, {}, {}},
		},
		{
			name:     "single_group",
			items:    []int{1, 2, 3},
			n:        1,
			expected: [][]int{{1, 2, 3}},
		},
	}
	for _, tcase := range cases {
		t.Run(tcase.name, func(t *testing.T) {
			groups := Split(tcase.items, tcase.n)
			require.Len(t, groups, len(tcase.expected))
			for i, group := range groups {
				require.Equal(t, len(tcase.expected[i]), len(group))
				for j, item := range group {
					require.Equal(t, tcase.expected[i][j], item)
				}
			}
		})
	}
}
