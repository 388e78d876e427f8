package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"outlay/internal/core"
)

func TestCategoryChoices(t *testing.T) {
	custom := []core.Category{
		{Name: "Subscriptions"},
		{Name: "food"}, // shadows a default, must not duplicate
		{Name: "  "},
	}

	t.Run("merges custom after defaults", func(t *testing.T) {
		choices := CategoryChoices(DefaultCategories, custom, "")

		assert.Len(t, choices, len(DefaultCategories)+1)
		last := choices[len(choices)-1]
		assert.Equal(t, "subscriptions", last.Key)
		assert.Equal(t, "Subscriptions", last.Label)
	})

	t.Run("synthesizes unknown current value", func(t *testing.T) {
		choices := CategoryChoices(DefaultCategories, nil, "vintage")

		last := choices[len(choices)-1]
		assert.Equal(t, "vintage", last.Key)
		assert.Equal(t, "Vintage", last.Label)
	})

	t.Run("current already present is not duplicated", func(t *testing.T) {
		choices := CategoryChoices(DefaultCategories, custom, "food")

		seen := map[string]int{}
		for _, c := range choices {
			seen[c.Key]++
		}
		assert.Equal(t, 1, seen["food"])
	})

	t.Run("does not mutate the defaults", func(t *testing.T) {
		before := len(DefaultCategories)
		_ = CategoryChoices(DefaultCategories, custom, "something_new")
		assert.Len(t, DefaultCategories, before)
	})
}
