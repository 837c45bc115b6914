package main

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPrintCategoriesSortedByName(t *testing.T) {
	byCategory := map[string]decimal.Decimal{
		"Travel":    decimal.NewFromInt(120),
		"Food":      decimal.RequireFromString("45.5"),
		"Health":    decimal.NewFromInt(30),
		"Education": decimal.NewFromInt(15),
	}
	want := "CATEGORY\tSPENT\nEducation\t15.00\nFood\t45.50\nHealth\t30.00\nTravel\t120.00\n"
	for i := 0; i < 5; i++ {
		var buf bytes.Buffer
		printCategories(&buf, byCategory)
		assert.Equal(t, want, buf.String())
	}
}

func TestParsePage(t *testing.T) {
	page, err := parsePage([]string{"expenses"}, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, page)

	page, err = parsePage([]string{"expenses", "3"}, 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, page)

	_, err = parsePage([]string{"expenses", "0"}, 1)
	assert.Error(t, err)
}
